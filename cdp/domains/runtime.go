package domains

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	cdpr "github.com/chromedp/cdproto/runtime"
)

// Runtime exposes the CDP Runtime domain actions the driver uses.
type Runtime interface {
	Enable(ctx context.Context) error
	AddBinding(ctx context.Context, name string) error
	// Evaluate runs expression in the page and unmarshals its by-value
	// result into out when out is non-nil.
	Evaluate(ctx context.Context, expression string, out any) error
}

var _ Runtime = &runtime{}

type runtime struct {
	exec cdp.Executor
}

// NewRuntime returns a new CDP Runtime domain wrapper.
func NewRuntime(exec cdp.Executor) Runtime {
	return &runtime{exec}
}

func (r *runtime) Enable(ctx context.Context) error {
	if err := cdpr.Enable().Do(cdp.WithExecutor(ctx, r.exec)); err != nil {
		return fmt.Errorf("enabling runtime CDP domain: %w", err)
	}
	return nil
}

func (r *runtime) AddBinding(ctx context.Context, name string) error {
	if err := cdpr.AddBinding(name).Do(cdp.WithExecutor(ctx, r.exec)); err != nil {
		return fmt.Errorf("adding runtime binding %q: %w", name, err)
	}
	return nil
}

func (r *runtime) Evaluate(ctx context.Context, expression string, out any) error {
	obj, exc, err := cdpr.Evaluate(expression).
		WithReturnByValue(true).
		Do(cdp.WithExecutor(ctx, r.exec))
	if err != nil {
		return fmt.Errorf("evaluating expression: %w", err)
	}
	if exc != nil {
		return fmt.Errorf("evaluating expression: %s", exc.Text)
	}
	if out == nil || obj == nil || obj.Value == nil {
		return nil
	}
	if err := json.Unmarshal(obj.Value, out); err != nil {
		return fmt.Errorf("unmarshaling evaluation result: %w", err)
	}
	return nil
}
