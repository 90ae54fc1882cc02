package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jfaulkner/pageharvest/internal/harvest"
)

func TestWriterWritesTimestampedReport(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root, zap.NewNop())
	require.NoError(t, err)
	w.now = func() time.Time {
		return time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	}

	outcomes := []harvest.Outcome[map[string]any]{
		{Address: "https://shop.example.com/p/1", Succeeded: true, Data: map[string]any{"name": "Runner"}},
		{Address: "https://shop.example.com/p/2", Succeeded: false},
	}

	path, err := w.Write(context.Background(), outcomes)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2026-08-31T10-30-00_products.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []harvest.Outcome[map[string]any]
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "https://shop.example.com/p/1", decoded[0].Address)
	assert.True(t, decoded[0].Succeeded)
	assert.Equal(t, "Runner", decoded[0].Data["name"])
	assert.False(t, decoded[1].Succeeded)
}

func TestWriterCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "reports")
	_, err := NewWriter(root, zap.NewNop())
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriterHonorsCanceledContext(t *testing.T) {
	w, err := NewWriter(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.Write(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
