// Package js embeds the in-page script that bridges the browser's
// IntersectionObserver to the Go viewport dispatcher.
package js

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

// BridgeScript observes the configured element groups with
// IntersectionObserver and posts every entry through the __scrollfx_emit
// binding as a JSON payload.
//
//go:embed bridge.js
var BridgeScript string

// EmitBinding is the name of the Runtime binding the bridge posts entries to.
const EmitBinding = "__scrollfx_emit"

// ObserverGroup is one observation the bridge installs in the page.
type ObserverGroup struct {
	Name       string  `json:"name"`
	Selector   string  `json:"selector"`
	Threshold  float64 `json:"threshold"`
	RootMargin string  `json:"rootMargin"`
}

// Entry is the payload the bridge posts for each IntersectionObserver entry.
type Entry struct {
	Target       string  `json:"target"`
	Ratio        float64 `json:"ratio"`
	Intersecting bool    `json:"intersecting"`
	Top          float64 `json:"top"`
}

// InstallScript returns the script to evaluate on new documents: the group
// configuration followed by the bridge itself.
func InstallScript(groups []ObserverGroup) (string, error) {
	buf, err := json.Marshal(groups)
	if err != nil {
		return "", fmt.Errorf("marshaling observer groups: %w", err)
	}
	return fmt.Sprintf("window.__scrollfxGroups = %s;\n%s", buf, BridgeScript), nil
}

// Validate compile-checks the bridge script so that a malformed bridge fails
// at startup instead of silently doing nothing in the page.
func Validate() error {
	if _, err := goja.Compile("bridge.js", BridgeScript, true); err != nil {
		return fmt.Errorf("compiling bridge script: %w", err)
	}
	return nil
}
