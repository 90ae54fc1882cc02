package harvest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Config controls the two-stage pipeline.
type Config struct {
	Session     SessionConfig
	FetchRounds int
}

// Pipeline drives the two-stage harvest: a paginated listing crawl that
// discovers item addresses, then batched item fetches with round-based
// retry of the addresses that failed.
type Pipeline struct {
	browsers NavigatorFactory
	cfg      Config
	listing  ListingExtractor
	item     ItemExtractor
	progress *Progress
	logger   *zap.Logger
}

// New constructs a Pipeline. The two extractors carry all site-specific
// behavior; the pipeline supplies pooling, retry, and the round walk.
func New(
	browsers NavigatorFactory,
	cfg Config,
	listing ListingExtractor,
	item ItemExtractor,
	progress *Progress,
	logger *zap.Logger,
) *Pipeline {
	if cfg.FetchRounds < 1 {
		cfg.FetchRounds = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		browsers: browsers,
		cfg:      cfg,
		listing:  listing,
		item:     item,
		progress: progress,
		logger:   logger,
	}
}

// Start runs the listing crawl from seed, then the item-fetch rounds, and
// returns one outcome per discovered item address. An empty listing skips
// the fetch stage entirely.
func (p *Pipeline) Start(ctx context.Context, seed string) ([]Outcome[map[string]any], error) {
	listings, err := p.fetchListings(ctx, seed)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		p.logger.Info("no items discovered", zap.String("seed", seed))
		p.progress.Finish()
		return nil, nil
	}

	products, err := p.fetchItems(ctx, listings)
	if err != nil {
		return products, err
	}
	p.progress.Finish()
	return products, nil
}

// fetchListings runs the single-job listing session. One seed address means
// the pool always has exactly one worker here.
func (p *Pipeline) fetchListings(ctx context.Context, seed string) ([]string, error) {
	p.progress.StartStage(StageListing, 1)

	outcomes, err := RunSession(ctx, p.browsers, p.cfg.Session, []string{seed}, p.listing, p.progress, p.logger)
	if err != nil {
		return nil, fmt.Errorf("listing crawl: %w", err)
	}

	var listings []string
	for _, o := range outcomes {
		if o.Succeeded {
			listings = append(listings, o.Data...)
		}
	}
	p.logger.Info("listing crawl finished", zap.Int("items", len(listings)))
	return listings, nil
}

// fetchItems runs up to FetchRounds sessions. Successful outcomes accumulate
// permanently; failed addresses carry into the next round. When rounds run
// out, the failed outcomes are retained too, so every address is represented
// exactly once in the final result.
func (p *Pipeline) fetchItems(ctx context.Context, addresses []string) ([]Outcome[map[string]any], error) {
	var products []Outcome[map[string]any]
	remaining := addresses

	for round := 1; round <= p.cfg.FetchRounds && len(remaining) > 0; round++ {
		p.logger.Info("fetching items",
			zap.Int("round", round),
			zap.Int("rounds", p.cfg.FetchRounds),
			zap.Int("addresses", len(remaining)),
		)
		p.progress.StartStage(StageItems, len(remaining))

		outcomes, err := RunSession(ctx, p.browsers, p.cfg.Session, remaining, p.item, p.progress, p.logger)
		if err != nil {
			return products, fmt.Errorf("item fetch round %d: %w", round, err)
		}

		var failed []Outcome[map[string]any]
		var next []string
		for _, o := range outcomes {
			if o.Succeeded {
				products = append(products, o)
				continue
			}
			failed = append(failed, o)
			next = append(next, o.Address)
		}
		remaining = next

		if len(remaining) > 0 && round == p.cfg.FetchRounds {
			products = append(products, failed...)
		}
	}

	return products, nil
}
