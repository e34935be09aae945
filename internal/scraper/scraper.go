// Package scraper downloads the daily Agmarknet commodity report by driving
// a headless Chrome session through the site's dashboard UI.
package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"mandi/internal/adapters/config"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper fetches the daily report CSV into the raw data directory
type Scraper struct {
	cfg    config.ScraperConfig
	rawDir string
	log    *logger.Logger
	now    func() time.Time
}

// New creates a scraper writing downloads into rawDir
func New(cfg config.ScraperConfig, rawDir string, log *logger.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		rawDir: rawDir,
		log:    log.With("step", "scrape"),
		now:    time.Now,
	}
}

// Name implements pipeline.Step
func (s *Scraper) Name() string { return "scrape" }

// browserStep is one UI interaction. Non-critical steps are best effort:
// the dashboard keeps changing and a missing filter control should not
// abort the download.
type browserStep struct {
	name     string
	critical bool
	timeout  time.Duration
	action   chromedp.Action
}

// Run drives the browser through the dashboard and saves the report as
// agmarknet_YYYY-MM-DD.csv. On a critical failure it captures a screenshot
// for debugging before returning.
func (s *Scraper) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.rawDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", s.rawDir)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1366, 768),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	downloadGUID := make(chan string, 1)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *browser.EventDownloadProgress:
			if e.State == browser.DownloadProgressStateCompleted {
				select {
				case downloadGUID <- e.GUID:
				default:
				}
			}
		case *page.EventJavascriptDialogOpening:
			// Confirmation dialogs around the export must not stall the run
			go func() {
				_ = chromedp.Run(browserCtx, page.HandleJavaScriptDialog(true))
			}()
		}
	})

	steps := []browserStep{
		{
			name:     "navigate",
			critical: true,
			timeout:  s.cfg.NavTimeout,
			action: chromedp.Tasks{
				browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
					WithDownloadPath(s.rawDir).
					WithEventsEnabled(true),
				chromedp.Navigate(s.cfg.URL),
				chromedp.WaitVisible("#variety", chromedp.ByID),
			},
		},
		{
			name:    "select individual variety",
			timeout: s.cfg.SelectorTimeout,
			action: chromedp.Tasks{
				chromedp.Click("#variety", chromedp.ByID),
				chromedp.Click(`//*[normalize-space(text())="Individual"]`, chromedp.BySearch),
				chromedp.KeyEvent(kb.Escape),
			},
		},
		{
			name:     "apply filters",
			critical: true,
			timeout:  s.cfg.SelectorTimeout,
			action:   chromedp.Click(`//button[normalize-space(text())="Go"]`, chromedp.BySearch),
		},
		{
			// The table may legitimately be empty; the export can still work
			name:    "wait for table",
			timeout: s.cfg.TableTimeout,
			action:  chromedp.WaitVisible("table tbody tr", chromedp.ByQuery),
		},
		{
			name:     "download csv",
			critical: true,
			timeout:  s.cfg.SelectorTimeout,
			action: chromedp.Tasks{
				chromedp.Click(`button[title='Download Report']`, chromedp.ByQuery),
				chromedp.Click(`//*[contains(text(),"Download as CSV")]`, chromedp.BySearch),
			},
		},
	}

	for _, step := range steps {
		if err := s.runStep(browserCtx, step); err != nil {
			if step.critical {
				s.screenshot(browserCtx)
				return errors.Wrapf(err, "scrape step %q", step.name)
			}
			s.log.Warnf("Step %q skipped: %v", step.name, err)
		}
	}

	select {
	case guid := <-downloadGUID:
		return s.saveDownload(guid)
	case <-time.After(s.cfg.DownloadTimeout):
		s.screenshot(browserCtx)
		return errors.Wrap(errors.ErrTimeout, "waiting for csv download")
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "scrape cancelled")
	}
}

func (s *Scraper) runStep(ctx context.Context, step browserStep) error {
	s.log.Debugf("Step: %s", step.name)
	stepCtx, cancel := context.WithTimeout(ctx, step.timeout)
	defer cancel()
	return chromedp.Run(stepCtx, step.action)
}

// saveDownload renames the GUID-named download to the dated report file
func (s *Scraper) saveDownload(guid string) error {
	src := filepath.Join(s.rawDir, guid)
	dst := filepath.Join(s.rawDir, fmt.Sprintf("agmarknet_%s.csv", s.now().Format("2006-01-02")))
	if err := os.Rename(src, dst); err != nil {
		return errors.Wrapf(err, "move download %s", guid)
	}
	s.log.Infof("Report saved to %s", dst)
	return nil
}

func (s *Scraper) screenshot(ctx context.Context) {
	shotCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		s.log.Warnf("Could not capture failure screenshot: %v", err)
		return
	}
	if err := os.WriteFile(s.cfg.ScreenshotPath, buf, 0o644); err != nil {
		s.log.Warnf("Could not write failure screenshot: %v", err)
		return
	}
	s.log.Infof("Failure screenshot saved to %s", s.cfg.ScreenshotPath)
}
