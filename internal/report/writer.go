// Package report writes harvest results to disk as timestamped JSON files.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jfaulkner/pageharvest/internal/harvest"
)

// Writer saves harvest outcomes under a root directory, one file per run.
type Writer struct {
	root   string
	now    func() time.Time
	logger *zap.Logger
}

// NewWriter returns a writer rooted at dir, creating it if needed.
func NewWriter(root string, logger *zap.Logger) (*Writer, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create report dir %s: %w", root, err)
	}
	return &Writer{
		root:   root,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Write saves the outcomes as an indented JSON array and returns the path.
func (w *Writer) Write(ctx context.Context, outcomes []harvest.Outcome[map[string]any]) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	payload, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	target := filepath.Join(w.root, w.now().Format("2006-01-02T15-04-05")+"_products.json")
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return "", fmt.Errorf("write report %s: %w", target, err)
	}
	w.logger.Info("report written",
		zap.String("path", target),
		zap.Int("outcomes", len(outcomes)))
	return target, nil
}
