package harvest

import (
	"context"
	"sync"
	"time"
)

// fakePage records navigations so extractors can key behavior off the
// address a worker pointed it at.
type fakePage struct {
	mu      sync.Mutex
	address string
	visits  []string
	navErr  func(address string) error
	closed  bool
}

func (p *fakePage) Navigate(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.navErr != nil {
		if err := p.navErr(address); err != nil {
			return err
		}
	}
	p.address = address
	p.visits = append(p.visits, address)
	return nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "<html></html>", nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.address
}

type fakeNavigator struct {
	mu     sync.Mutex
	pages  []*fakePage
	closed bool
}

func (n *fakeNavigator) NewPage(_ context.Context) (Page, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	page := &fakePage{}
	n.pages = append(n.pages, page)
	return page, nil
}

func (n *fakeNavigator) Close(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

func (n *fakeNavigator) pageCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pages)
}

type fakeFactory struct {
	mu         sync.Mutex
	navigators []*fakeNavigator
}

func (f *fakeFactory) NewNavigator(_ context.Context) (Navigator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	nav := &fakeNavigator{}
	f.navigators = append(f.navigators, nav)
	return nav, nil
}

func (f *fakeFactory) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.navigators)
}

func (f *fakeFactory) last() *fakeNavigator {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.navigators) == 0 {
		return nil
	}
	return f.navigators[len(f.navigators)-1]
}

// byAddress builds an extractor that looks up the page's current address.
// Addresses in fail produce an error.
func byAddress[T any](results map[string]T, fail map[string]bool) Extractor[T] {
	return func(_ context.Context, page Page) (T, error) {
		var zero T
		addr := page.(*fakePage).current()
		if fail[addr] {
			return zero, errAlwaysFails
		}
		return results[addr], nil
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errAlwaysFails = fakeErr("extractor failed")

// quickSession is a config with no waiting, for tests that do not exercise
// backoff or jitter.
func quickSession(workerLimit int) SessionConfig {
	return SessionConfig{
		WorkerLimit:      workerLimit,
		MaxRetries:       1,
		RetryDelayFactor: 0,
		ExtractTimeout:   time.Second,
	}
}
