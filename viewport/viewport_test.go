package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarginString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    Margin
		want string
	}{
		{"zero", Margin{}, "0px"},
		{"pixels", Margin{Pixels: -50}, "-50px"},
		{"percent", Margin{Percent: -70}, "-70%"},
		{"pixels win", Margin{Pixels: -100, Percent: -70}, "-100px"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.m.String())
		})
	}
}

func TestConfigRootMargin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"zero", Config{}, "0px 0px 0px 0px"},
		{
			"reveal",
			Config{Threshold: 0.1, RootMarginBottom: Margin{Pixels: -50}},
			"0px 0px -50px 0px",
		},
		{
			"tracker",
			Config{RootMarginTop: Margin{Pixels: -100}, RootMarginBottom: Margin{Percent: -70}},
			"-100px 0px -70% 0px",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.RootMargin())
		})
	}
}
