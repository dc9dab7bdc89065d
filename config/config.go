// Package config loads effect profiles: which element groups the page
// carries, their timing constants, and where the section tracker applies.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/guregu/null.v3"
)

// GroupProfile describes one reveal group of the page.
type GroupProfile struct {
	Name          string `koanf:"name"`
	Class         string `koanf:"class"`
	StaggerMillis int    `koanf:"stagger_ms"`
}

// Profile is the full effect configuration of a page.
type Profile struct {
	Page struct {
		Path string `koanf:"path"`
	} `koanf:"page"`

	Reveal struct {
		Threshold      float64        `koanf:"threshold"`
		BottomMarginPx float64        `koanf:"bottom_margin_px"`
		Groups         []GroupProfile `koanf:"groups"`
	} `koanf:"reveal"`

	Counter struct {
		Class      string  `koanf:"class"`
		Threshold  float64 `koanf:"threshold"`
		TickMillis int     `koanf:"tick_ms"`
		Steps      int     `koanf:"steps"`
	} `koanf:"counter"`

	Tracker struct {
		PathContains        []string `koanf:"path_contains"`
		SectionClass        string   `koanf:"section_class"`
		LinkClass           string   `koanf:"link_class"`
		TopMarginPx         float64  `koanf:"top_margin_px"`
		BottomMarginPercent float64  `koanf:"bottom_margin_percent"`
		ActiveClass         string   `koanf:"active_class"`
	} `koanf:"tracker"`

	Log struct {
		Level          string `koanf:"level"`
		CategoryFilter string `koanf:"category_filter"`
	} `koanf:"log"`
}

// Default returns the profile matching the marketing site's markup contract:
// feature cards, tutorial steps and pricing tiers with their stagger
// constants, stat counters, and the legal-page section tracker.
func Default() *Profile {
	p := &Profile{}
	p.Page.Path = "/"

	p.Reveal.Threshold = 0.1
	p.Reveal.BottomMarginPx = -50
	p.Reveal.Groups = []GroupProfile{
		{Name: "features", Class: "feature-card", StaggerMillis: 100},
		{Name: "steps", Class: "step", StaggerMillis: 200},
		{Name: "pricing", Class: "pricing-card", StaggerMillis: 150},
	}

	p.Counter.Class = "stat-number"
	p.Counter.Threshold = 1.0
	p.Counter.TickMillis = 30
	p.Counter.Steps = 50

	p.Tracker.PathContains = []string{"privacy", "terms"}
	p.Tracker.SectionClass = "legal-section"
	p.Tracker.LinkClass = "toc-link"
	p.Tracker.TopMarginPx = -100
	p.Tracker.BottomMarginPercent = -70
	p.Tracker.ActiveClass = "active"

	p.Log.Level = "info"
	return p
}

// Load reads a profile from the given YAML file (if it exists), then
// overlays environment overrides (SCROLLFX_*). An empty path loads defaults
// and environment only.
func Load(path string) (*Profile, error) {
	k := koanf.New(".")
	p := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading profile %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing profile %s: %w", path, err)
		}
	}

	// SCROLLFX_COUNTER.TICK_MS -> counter.tick_ms, etc.
	if err := k.Load(env.Provider("SCROLLFX_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SCROLLFX_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", p); err != nil {
		return nil, fmt.Errorf("unmarshalling profile: %w", err)
	}
	return p, nil
}

// Overrides are command-line overrides applied on top of a loaded profile.
// Null fields distinguish "not given" from a zero value, so `--steps 0` and
// no flag at all behave differently.
type Overrides struct {
	PagePath   null.String
	TickMillis null.Int
	Steps      null.Int
}

// Apply folds the overrides into p.
func (o Overrides) Apply(p *Profile) {
	if o.PagePath.Valid {
		p.Page.Path = o.PagePath.String
	}
	if o.TickMillis.Valid {
		p.Counter.TickMillis = int(o.TickMillis.Int64)
	}
	if o.Steps.Valid {
		p.Counter.Steps = int(o.Steps.Int64)
	}
}

// TickPeriod returns the counter tick period as a duration.
func (p *Profile) TickPeriod() time.Duration {
	return time.Duration(p.Counter.TickMillis) * time.Millisecond
}

// Validate checks the profile for values the controllers cannot work with.
func (p *Profile) Validate() error {
	if p.Counter.TickMillis < 0 {
		return fmt.Errorf("counter tick_ms must be non-negative, got %d", p.Counter.TickMillis)
	}
	if p.Counter.Steps < 0 {
		return fmt.Errorf("counter steps must be non-negative, got %d", p.Counter.Steps)
	}
	if p.Reveal.Threshold < 0 || p.Reveal.Threshold > 1 {
		return fmt.Errorf("reveal threshold must be within [0, 1], got %g", p.Reveal.Threshold)
	}
	if p.Counter.Threshold < 0 || p.Counter.Threshold > 1 {
		return fmt.Errorf("counter threshold must be within [0, 1], got %g", p.Counter.Threshold)
	}
	for _, g := range p.Reveal.Groups {
		if g.Class == "" {
			return fmt.Errorf("reveal group %q has no class", g.Name)
		}
		if g.StaggerMillis < 0 {
			return fmt.Errorf("reveal group %q has negative stagger", g.Name)
		}
	}
	return nil
}
