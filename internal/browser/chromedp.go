// Package browser provides the chromedp-backed implementation of the
// harvest.Navigator and harvest.Page collaborators.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jfaulkner/pageharvest/internal/harvest"
)

// Config controls the headless browser contexts handed to sessions.
type Config struct {
	BaseURL     string
	UserAgent   string
	Headless    bool
	NavTimeout  time.Duration
	SettleDelay time.Duration
	DomainQPS   float64
	Filter      *harvest.RequestFilter
}

// Factory implements harvest.NavigatorFactory. Each call launches a fresh
// browser scoped to the configured base address.
type Factory struct {
	cfg    Config
	logger *zap.Logger
}

// NewFactory creates a Factory.
func NewFactory(cfg Config, logger *zap.Logger) *Factory {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, logger: logger}
}

// NewNavigator launches a browser and warms it up so the first page handle
// opens quickly.
func (f *Factory) NewNavigator(_ context.Context) (harvest.Navigator, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if f.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Navigator{
		cfg:           f.cfg,
		logger:        f.logger,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// Navigator owns one running browser and hands out tabs as page handles.
type Navigator struct {
	cfg            Config
	logger         *zap.Logger
	browserCtx     context.Context
	browserCancel  context.CancelFunc
	allocCancel    context.CancelFunc
	domainLimiters sync.Map
}

// NewPage opens a tab with request interception installed, so the filter is
// active before the first navigation.
func (n *Navigator) NewPage(_ context.Context) (harvest.Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(n.browserCtx)

	if err := chromedp.Run(tabCtx, network.Enable(), fetch.Enable()); err != nil {
		cancelTab()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	n.interceptRequests(tabCtx)

	return &page{nav: n, ctx: tabCtx, cancel: cancelTab}, nil
}

// Close tears down the browser and allocator contexts. Open tabs die with
// the browser.
func (n *Navigator) Close(_ context.Context) error {
	n.browserCancel()
	n.allocCancel()
	return nil
}

// interceptRequests resolves each paused request against the filter:
// excluded resource types are failed, everything else continues.
func (n *Navigator) interceptRequests(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		event, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			if n.cfg.Filter.Decide(string(event.ResourceType)) == harvest.Abort {
				if err := fetch.FailRequest(event.RequestID, network.ErrorReasonAborted).Do(execCtx); err != nil {
					n.logger.Debug("abort request", zap.String("url", event.Request.URL), zap.Error(err))
				}
				return
			}
			if err := fetch.ContinueRequest(event.RequestID).Do(execCtx); err != nil {
				n.logger.Debug("continue request", zap.String("url", event.Request.URL), zap.Error(err))
			}
		}()
	})
}

// resolve joins a possibly-relative address against the base URL.
func (n *Navigator) resolve(address string) string {
	if n.cfg.BaseURL == "" {
		return address
	}
	base, err := url.Parse(n.cfg.BaseURL)
	if err != nil {
		return address
	}
	ref, err := url.Parse(address)
	if err != nil {
		return address
	}
	return base.ResolveReference(ref).String()
}

// waitDomainBudget enforces the optional per-domain QPS limit.
func (n *Navigator) waitDomainBudget(ctx context.Context, rawURL string) error {
	if n.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse navigation url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := n.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(n.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait domain budget: %w", err)
	}
	return nil
}

// page is one browser tab.
type page struct {
	nav    *Navigator
	ctx    context.Context
	cancel context.CancelFunc
}

// Navigate opens address and waits for the DOM to be ready plus a settle
// delay, approximating network quiescence.
func (p *page) Navigate(ctx context.Context, address string) error {
	target := p.nav.resolve(address)
	if err := p.nav.waitDomainBudget(ctx, target); err != nil {
		return err
	}

	navCtx, cancelNav := context.WithTimeout(p.ctx, p.nav.cfg.NavTimeout)
	defer cancelNav()
	stop := forwardCancel(ctx, cancelNav)
	defer stop()

	tasks := chromedp.Tasks{
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(p.nav.cfg.SettleDelay),
	}
	if err := chromedp.Run(navCtx, tasks); err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	return nil
}

// HTML returns the current DOM snapshot.
func (p *page) HTML(ctx context.Context) (string, error) {
	snapCtx, cancelSnap := context.WithCancel(p.ctx)
	defer cancelSnap()
	stop := forwardCancel(ctx, cancelSnap)
	defer stop()

	var html string
	if err := chromedp.Run(snapCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot dom: %w", err)
	}
	return html, nil
}

// Close releases the tab.
func (p *page) Close() error {
	p.cancel()
	return nil
}

// forwardCancel propagates cancellation from parent into cancel until the
// returned stop function runs.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
