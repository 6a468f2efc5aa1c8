package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Playwright is a Session backed by playwright-go.
type Playwright struct {
	target  Target
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// PlaywrightOptions controls driver startup.
type PlaywrightOptions struct {
	Install bool // download the driver and browser before launch
}

// NewPlaywright starts the playwright driver and launches the configured browser.
// the page is created lazily by Open.
func NewPlaywright(target Target, opts PlaywrightOptions) (*Playwright, error) {
	browserName := target.Browser
	if browserName == "" {
		browserName = "chromium"
	}

	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{browserName}}); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("run playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch browserName {
	case "chromium":
		bt = pw.Chromium
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unknown browser %q", browserName)
	}

	browser, err := bt.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(target.Headless)})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", browserName, err)
	}

	return &Playwright{target: target, pw: pw, browser: browser}, nil
}

// Open navigates a fresh page to the target and waits for the network to go idle plus the page-load grace.
// calling Open again replaces the page, which resets all widget state.
func (p *Playwright) Open(ctx context.Context) error {
	if p.page != nil {
		_ = p.page.Close()
		p.page = nil
	}

	page, err := p.browser.NewPage()
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	p.page = page

	if _, err := page.Goto(p.target.URL); err != nil {
		return fmt.Errorf("navigate to %s: %w", p.target.URL, err)
	}
	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: playwright.LoadStateNetworkidle}); err != nil {
		return fmt.Errorf("wait for load %s: %w", p.target.URL, err)
	}
	return sleepCtx(ctx, p.target.PageLoad)
}

// Close releases the page, the browser and the driver.
func (p *Playwright) Close() error {
	var errs []error
	if p.page != nil {
		if err := p.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ClearInput empties the input surface.
func (p *Playwright) ClearInput(ctx context.Context) error {
	input, err := p.input(ctx)
	if err != nil {
		return err
	}
	if err := input.Clear(playwright.LocatorClearOptions{Timeout: p.timeoutMs()}); err != nil {
		return fmt.Errorf("clear input: %w", err)
	}
	return nil
}

// SetInput injects text. atomic mode replaces the value, incremental mode types at the cursor
// with the configured delay between characters.
func (p *Playwright) SetInput(ctx context.Context, text string, mode Mode) error {
	input, err := p.input(ctx)
	if err != nil {
		return err
	}

	switch mode {
	case ModeIncremental:
		err = input.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
			Delay: playwright.Float(float64(p.target.TypingDelay / time.Millisecond)),
		})
	default:
		err = input.Fill(text, playwright.LocatorFillOptions{Timeout: p.timeoutMs()})
	}
	if err != nil {
		return fmt.Errorf("set input (%s): %w", mode, err)
	}
	return nil
}

// ReadOutput returns the text of the first non-editable element matching the output selector.
// if no such element exists yet, it waits up to the discovery timeout before failing.
func (p *Playwright) ReadOutput(ctx context.Context) (string, error) {
	if err := p.ready(ctx); err != nil {
		return "", err
	}

	res, err := p.page.Evaluate(outputScript, p.target.OutputSelector)
	if err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	if text, ok := res.(string); ok {
		return text, nil
	}

	// no output surface yet, give it a bounded chance to appear
	found := fmt.Sprintf("(sel) => (%s)(sel) !== null", outputScript)
	if _, err := p.page.WaitForFunction(found, p.target.OutputSelector,
		playwright.PageWaitForFunctionOptions{Timeout: p.timeoutMs()}); err != nil {
		return "", &ElementNotFoundError{Surface: "output", Locator: p.target.OutputSelector,
			Timeout: p.target.DiscoveryTimeout, Err: err}
	}

	res, err = p.page.Evaluate(outputScript, p.target.OutputSelector)
	if err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	text, _ := res.(string)
	return text, nil
}

// input locates the input surface, waiting up to the discovery timeout for it to be visible.
func (p *Playwright) input(ctx context.Context) (playwright.Locator, error) {
	if err := p.ready(ctx); err != nil {
		return nil, err
	}

	var loc playwright.Locator
	if p.target.InputSelector != "" {
		loc = p.page.Locator(p.target.InputSelector).First()
	} else {
		loc = p.page.GetByRole(playwright.AriaRole(p.target.InputRole),
			playwright.PageGetByRoleOptions{Name: p.target.InputName}).First()
	}

	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: p.timeoutMs(),
	})
	if err != nil {
		return nil, &ElementNotFoundError{Surface: "input", Locator: p.target.inputLocator(),
			Timeout: p.target.DiscoveryTimeout, Err: err}
	}
	return loc, nil
}

func (p *Playwright) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.page == nil {
		return errors.New("page is not open")
	}
	return nil
}

func (p *Playwright) timeoutMs() *float64 {
	return playwright.Float(float64(p.target.DiscoveryTimeout / time.Millisecond))
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
