// Package domains wraps the CDP domain actions the scrollfx driver needs
// behind small interfaces, keeping the cdproto action plumbing in one place.
package domains

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	cdpp "github.com/chromedp/cdproto/page"
)

// Page exposes the CDP Page domain actions the driver uses.
type Page interface {
	Enable(ctx context.Context) error
	AddScriptToEvaluateOnNewDocument(ctx context.Context, source string) (string, error)
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
}

var _ Page = &page{}

type page struct {
	exec cdp.Executor
}

// NewPage returns a new CDP Page domain wrapper.
func NewPage(exec cdp.Executor) Page {
	return &page{exec}
}

func (p *page) Enable(ctx context.Context) error {
	if err := cdpp.Enable().Do(cdp.WithExecutor(ctx, p.exec)); err != nil {
		return fmt.Errorf("enabling page CDP domain: %w", err)
	}
	return nil
}

func (p *page) AddScriptToEvaluateOnNewDocument(ctx context.Context, source string) (string, error) {
	id, err := cdpp.AddScriptToEvaluateOnNewDocument(source).Do(cdp.WithExecutor(ctx, p.exec))
	if err != nil {
		return "", fmt.Errorf("installing script on new documents: %w", err)
	}
	return id.String(), nil
}

func (p *page) Navigate(ctx context.Context, url string) error {
	action := cdpp.Navigate(url)
	_, _, errorText, err := action.Do(cdp.WithExecutor(ctx, p.exec))
	if err != nil {
		return fmt.Errorf("navigating to %q: %s: %w", url, errorText, err)
	}
	return nil
}

func (p *page) Reload(ctx context.Context) error {
	if err := cdpp.Reload().Do(cdp.WithExecutor(ctx, p.exec)); err != nil {
		return fmt.Errorf("reloading page: %w", err)
	}
	return nil
}
