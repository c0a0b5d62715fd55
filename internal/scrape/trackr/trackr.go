// Package trackr collects open spring week listings from a Trackr board by
// driving headless Chrome and watching the JSON the page loads.
package trackr

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/errgroup"

	"springwatch/internal/domain"
	"springwatch/internal/scrape"
	"springwatch/internal/scrape/extract"
	"springwatch/internal/scrape/types"
)

const (
	scrollScript = `window.scrollTo(0, document.body.scrollHeight)`
	domReadyExpr = `location.href !== "about:blank" && document.readyState !== "loading"`
)

type Config struct {
	URL       string
	UserAgent string
	Locale    string
	Headless  bool

	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	ScrollPause       time.Duration
	StagnantRounds    int
	MaxScrolls        int
	ScrollTimeout     time.Duration

	// PageDataSelector points at the script element holding the page's
	// embedded JSON (Next.js: script#__NEXT_DATA__).
	PageDataSelector string
	PageDataTimeout  time.Duration
}

type Scraper struct {
	cfg Config
}

func New(cfg Config) *Scraper {
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() string { return "trackr" }

func (s *Scraper) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", s.cfg.Locale),
		chromedp.UserAgent(s.cfg.UserAgent),
	)
}

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	q := newQueue()
	acc := &accumulator{}
	chromedp.ListenTarget(tabCtx, newListener(q).handle)

	// Start the browser with no deadline attached; timeouts below only bound
	// individual steps.
	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": s.cfg.Locale}),
	); err != nil {
		return types.ScrapeResult{}, fmt.Errorf("trackr start browser: %w", err)
	}

	var seen, skipped int
	g, gctx := errgroup.WithContext(tabCtx)
	g.Go(func() error {
		seen, skipped = consume(gctx, q, acc, responseBody)
		return nil
	})
	g.Go(func() error {
		defer q.close()
		return s.drive(gctx, acc)
	})
	if err := g.Wait(); err != nil {
		return types.ScrapeResult{}, err
	}
	log.Printf("[trackr] responses json=%d skipped=%d captured=%d", seen, skipped, acc.Len())

	fallback, err := s.pageData(tabCtx)
	if err != nil {
		log.Printf("[trackr] page data unavailable: %v", err)
	}
	acc.add(fallback)

	listings := scrape.Project(acc.records())
	log.Printf("[trackr] fallback=%d raw=%d open=%d", len(fallback), acc.Len(), len(listings))

	return types.ScrapeResult{
		Source:   s.Name(),
		Listings: listings,
		Raw:      acc.Len(),
	}, nil
}

// drive navigates, lets the first requests go out, then scrolls until the
// captured set stops growing.
func (s *Scraper) drive(ctx context.Context, acc *accumulator) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	err := chromedp.Run(navCtx, navigateDOMReady(s.cfg.URL))
	cancel()
	if err != nil {
		return fmt.Errorf("trackr navigate %s: %w", s.cfg.URL, err)
	}

	if err := chromedp.Run(ctx, chromedp.Sleep(s.cfg.SettleDelay)); err != nil {
		return fmt.Errorf("trackr settle: %w", err)
	}

	plan := scrollPlan{
		Pause:          s.cfg.ScrollPause,
		StagnantRounds: s.cfg.StagnantRounds,
		MaxScrolls:     s.cfg.MaxScrolls,
		Timeout:        s.cfg.ScrollTimeout,
	}
	rounds, err := scrollUntilStagnant(ctx, plan, scrollToBottom, acc.Len)
	if err != nil {
		return fmt.Errorf("trackr scroll: %w", err)
	}
	log.Printf("[trackr] scrolled rounds=%d captured=%d", rounds, acc.Len())
	return nil
}

func (s *Scraper) pageData(ctx context.Context) ([]domain.RawRecord, error) {
	if s.cfg.PageDataSelector == "" {
		return nil, nil
	}
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PageDataTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(pctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return PageDataRecords(html, s.cfg.PageDataSelector)
}

// PageDataRecords finds the embedded JSON script in html and walks it for
// listing-shaped lists.
func PageDataRecords(html, selector string) ([]domain.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	payload, err := extract.Decode([]byte(sel.Text()))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", selector, err)
	}
	return extract.WalkPageData(payload), nil
}

// navigateDOMReady starts navigation to url and returns once the new
// document has left the "loading" state (DOMContentLoaded). Unlike
// chromedp.Navigate it does not wait for the load event.
func navigateDOMReady(url string) chromedp.Tasks {
	var ready bool
	return chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			var res page.NavigateReturns
			if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
				return err
			}
			if res.ErrorText != "" {
				return fmt.Errorf("page load error %s", res.ErrorText)
			}
			return nil
		}),
		chromedp.Poll(domReadyExpr, &ready, chromedp.WithPollingInterval(100*time.Millisecond)),
	}
}

func scrollToBottom(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.Evaluate(scrollScript, nil))
}

func responseBody(ctx context.Context, id network.RequestID) ([]byte, error) {
	var body []byte
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		b, err := network.GetResponseBody(id).Do(ctx)
		body = b
		return err
	}))
	return body, err
}
