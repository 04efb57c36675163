package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

type renderOptions struct {
	DriverPath    string // browser executable
	DriverDir     string // playwright driver directory, empty for its default
	InstallDriver bool
	Timeout       time.Duration
	UserAgent     string
	Headless      bool
	logger        *zap.Logger
}

var defaultRenderOptions = renderOptions{
	Timeout:   30 * time.Second,
	UserAgent: DefaultUserAgent,
	Headless:  true,
	logger:    zap.NewNop(),
}

type RenderOption func(opts *renderOptions)

func WithDriverPath(path string) RenderOption {
	return func(opts *renderOptions) {
		opts.DriverPath = path
	}
}

func WithDriverDir(dir string) RenderOption {
	return func(opts *renderOptions) {
		opts.DriverDir = dir
	}
}

func WithInstallDriver(install bool) RenderOption {
	return func(opts *renderOptions) {
		opts.InstallDriver = install
	}
}

func WithRenderTimeout(timeout time.Duration) RenderOption {
	return func(opts *renderOptions) {
		opts.Timeout = timeout
	}
}

func WithRenderUserAgent(ua string) RenderOption {
	return func(opts *renderOptions) {
		opts.UserAgent = ua
	}
}

func WithHeadless(headless bool) RenderOption {
	return func(opts *renderOptions) {
		opts.Headless = headless
	}
}

func WithRenderLogger(logger *zap.Logger) RenderOption {
	return func(opts *renderOptions) {
		opts.logger = logger
	}
}

// RenderFetch loads pages in a real browser so that script-built tables
// exist before the html is read. One browser page is held for the whole
// run and must be released with Close.
type RenderFetch struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	renderOptions
}

func NewRenderFetch(opts ...RenderOption) (*RenderFetch, error) {
	options := defaultRenderOptions
	for _, opt := range opts {
		opt(&options)
	}

	path, err := ResolveDriver(options.DriverPath)
	if err != nil {
		return nil, err
	}
	options.DriverPath = path

	runOpts := &playwright.RunOptions{
		DriverDirectory:     options.DriverDir,
		SkipInstallBrowsers: true,
	}

	if options.InstallDriver {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("install playwright driver failed: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright failed: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		ExecutablePath: playwright.String(options.DriverPath),
		Headless:       playwright.Bool(options.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser %s failed: %w", options.DriverPath, err)
	}

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(options.UserAgent),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("open page failed: %w", err)
	}

	options.logger.Info("browser session started", zap.String("driver", options.DriverPath))

	return &RenderFetch{
		pw:            pw,
		browser:       browser,
		page:          page,
		renderOptions: options,
	}, nil
}

// Get navigates to the url and waits until req.Selector is attached to the
// DOM, bounded by the fetcher timeout.
func (r *RenderFetch) Get(ctx context.Context, req *Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.page == nil {
		return nil, errors.New("browser session closed")
	}

	timeout := float64(r.Timeout.Milliseconds())

	resp, err := r.page.Goto(req.URL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, fmt.Errorf("navigate %s failed: %w", req.URL, err)
	}

	if resp != nil && (resp.Status() < 200 || resp.Status() >= 300) {
		return nil, fmt.Errorf("error status code:%d url:%s", resp.Status(), req.URL)
	}

	if req.Selector != "" {
		err := r.page.Locator(req.Selector).First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(timeout),
		})
		if err != nil {
			// the page is still read, a missing table is decided by the extractor
			r.logger.Warn("wait for selector failed",
				zap.String("url", req.URL),
				zap.String("selector", req.Selector),
				zap.Error(err),
			)
		}
	}

	html, err := r.page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content failed: %w", err)
	}

	return []byte(html), nil
}

// Close releases the page, the browser and the playwright driver.
// Calling it again is a no-op.
func (r *RenderFetch) Close() error {
	if r.pw == nil {
		return nil
	}

	var errs []error
	if r.page != nil {
		errs = append(errs, r.page.Close())
	}
	if r.browser != nil {
		errs = append(errs, r.browser.Close())
	}
	errs = append(errs, r.pw.Stop())

	r.page, r.browser, r.pw = nil, nil, nil

	r.logger.Info("browser session closed")

	return errors.Join(errs...)
}
