package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Chrome is a Session backed by chromedp talking to a local Chrome over the DevTools protocol.
// chromedp has no role-based queries, so the input is located by css; see Target.inputCSS.
type Chrome struct {
	target      Target
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

// NewChrome prepares an exec allocator for the target. the browser process starts on Open.
func NewChrome(parent context.Context, target Target) *Chrome {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", target.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	return &Chrome{target: target, allocCancel: allocCancel, tabCtx: tabCtx, tabCancel: tabCancel}
}

// Open navigates the tab to the target and waits for the document body plus the page-load grace.
func (c *Chrome) Open(ctx context.Context) error {
	if err := chromedp.Run(c.tabCtx,
		chromedp.Navigate(c.target.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate to %s: %w", c.target.URL, err)
	}
	return sleepCtx(ctx, c.target.PageLoad)
}

// Close shuts the tab and the browser process down.
func (c *Chrome) Close() error {
	c.tabCancel()
	c.allocCancel()
	return nil
}

// ClearInput empties the input surface.
func (c *Chrome) ClearInput(ctx context.Context) error {
	return c.fill(ctx, "")
}

// SetInput injects text. atomic mode replaces the value through the native setter,
// incremental mode sends one key event per character with the configured delay.
func (c *Chrome) SetInput(ctx context.Context, text string, mode Mode) error {
	if mode != ModeIncremental {
		return c.fill(ctx, text)
	}

	sel, err := c.input(ctx)
	if err != nil {
		return err
	}
	for _, r := range text {
		if err := chromedp.Run(c.tabCtx, chromedp.SendKeys(sel, string(r), chromedp.ByQuery)); err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}
		if err := sleepCtx(ctx, c.target.TypingDelay); err != nil {
			return err
		}
	}
	return nil
}

// ReadOutput returns the text of the first non-editable element matching the output selector.
func (c *Chrome) ReadOutput(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	expr, err := call(outputScript, c.target.OutputSelector)
	if err != nil {
		return "", err
	}

	var res *string
	if err := chromedp.Run(c.tabCtx, chromedp.Evaluate(expr, &res)); err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	if res != nil {
		return *res, nil
	}

	// no output surface yet, poll for it within the discovery timeout
	found := fmt.Sprintf("(sel) => (%s)(sel) !== null", outputScript)
	if err := chromedp.Run(c.tabCtx, chromedp.PollFunction(found, nil,
		chromedp.WithPollingArgs(c.target.OutputSelector),
		chromedp.WithPollingTimeout(c.target.DiscoveryTimeout),
	)); err != nil {
		return "", &ElementNotFoundError{Surface: "output", Locator: c.target.OutputSelector,
			Timeout: c.target.DiscoveryTimeout, Err: err}
	}

	res = nil
	if err := chromedp.Run(c.tabCtx, chromedp.Evaluate(expr, &res)); err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	if res == nil {
		return "", nil
	}
	return *res, nil
}

func (c *Chrome) fill(ctx context.Context, value string) error {
	sel, err := c.input(ctx)
	if err != nil {
		return err
	}

	expr, err := call(fillScript, sel, value)
	if err != nil {
		return err
	}
	var ok bool
	if err := chromedp.Run(c.tabCtx, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("fill input: %w", err)
	}
	if !ok {
		return &ElementNotFoundError{Surface: "input", Locator: sel, Timeout: c.target.DiscoveryTimeout}
	}
	return nil
}

// input waits for the input surface to be visible and returns its css selector.
func (c *Chrome) input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sel := c.target.inputCSS()
	waitCtx, cancel := context.WithTimeout(c.tabCtx, c.target.DiscoveryTimeout)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return "", &ElementNotFoundError{Surface: "input", Locator: sel, Timeout: c.target.DiscoveryTimeout, Err: err}
		}
		return "", fmt.Errorf("locate input: %w", err)
	}
	return sel, nil
}

// call renders a js function invocation with json-encoded arguments.
func call(fn string, args ...any) (string, error) {
	parts := make([]byte, 0, 64)
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("encode script argument: %w", err)
		}
		if i > 0 {
			parts = append(parts, ',')
		}
		parts = append(parts, b...)
	}
	return fmt.Sprintf("(%s)(%s)", fn, parts), nil
}
