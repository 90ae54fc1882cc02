package harvest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoaderRetriesNavigationErrors(t *testing.T) {
	t.Parallel()

	retry := NewRetryPolicy(3, time.Second, zap.NewNop())
	recordedSleeps(retry)
	loader := NewLoader[string](retry, time.Second, zap.NewNop())

	failures := 2
	page := &fakePage{navErr: func(string) error {
		if failures > 0 {
			failures--
			return errors.New("net::ERR_CONNECTION_RESET")
		}
		return nil
	}}

	out, err := loader.Load(context.Background(), page, "/shoes.html", func(_ context.Context, p Page) (string, error) {
		return p.(*fakePage).current(), nil
	})
	require.NoError(t, err)
	require.Equal(t, "/shoes.html", out)
}

func TestLoaderTimesOutSlowExtractors(t *testing.T) {
	t.Parallel()

	retry := NewRetryPolicy(2, time.Second, zap.NewNop())
	recordedSleeps(retry)
	loader := NewLoader[string](retry, 20*time.Millisecond, zap.NewNop())

	page := &fakePage{}
	_, err := loader.Load(context.Background(), page, "/slow.html", func(ctx context.Context, _ Page) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(500 * time.Millisecond):
			return "late", nil
		}
	})
	require.ErrorIs(t, err, ErrRetriesExhausted)
}

func TestLoaderCollapsesFailureCauses(t *testing.T) {
	t.Parallel()

	// Navigation error and extraction error both surface as the same
	// exhaustion error; the caller cannot tell them apart.
	for name, page := range map[string]*fakePage{
		"navigation": {navErr: func(string) error { return errors.New("nav failed") }},
		"extraction": {},
	} {
		retry := NewRetryPolicy(1, time.Second, zap.NewNop())
		recordedSleeps(retry)
		loader := NewLoader[string](retry, time.Second, zap.NewNop())

		_, err := loader.Load(context.Background(), page, "/x.html", func(context.Context, Page) (string, error) {
			return "", errors.New("parse failed")
		})
		require.ErrorIs(t, err, ErrRetriesExhausted, name)
	}
}
