package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scrollfx/scrollfx/counter"
	"github.com/scrollfx/scrollfx/reveal"
)

// RunReport captures the outcome of one engine run: which targets revealed
// with what delays, how every stat animation ended, and the section that was
// active when the run stopped.
type RunReport struct {
	Page          string                 `json:"page"`
	GeneratedAt   time.Time              `json:"generated_at"`
	Reveal        []reveal.TargetStatus  `json:"reveal,omitempty"`
	Counter       []counter.TargetStatus `json:"counter,omitempty"`
	ActiveSection string                 `json:"active_section,omitempty"`
}

// WriteReport serializes r as indented JSON and hands it to p.
func WriteReport(ctx context.Context, p FilePersister, path string, r *RunReport) error {
	buf, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := p.Persist(ctx, path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("persisting run report %q: %w", path, err)
	}
	return nil
}
