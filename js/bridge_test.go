package js

import (
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Validate())
}

func TestInstallScript(t *testing.T) {
	t.Parallel()

	groups := []ObserverGroup{
		{Name: "features", Selector: ".feature-card", Threshold: 0.1, RootMargin: "0px 0px -50px 0px"},
		{Name: "stats", Selector: ".stat-number", Threshold: 1},
	}
	script, err := InstallScript(groups)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "window.__scrollfxGroups = "))
	assert.Contains(t, script, `"selector":".feature-card"`)
	assert.Contains(t, script, `"rootMargin":"0px 0px -50px 0px"`)
	assert.Contains(t, script, EmitBinding)

	// The combined script must still be syntactically valid.
	_, err = goja.Compile("install.js", script, true)
	assert.NoError(t, err)
}

func TestInstallScriptEmpty(t *testing.T) {
	t.Parallel()

	script, err := InstallScript(nil)
	require.NoError(t, err)
	assert.Contains(t, script, "window.__scrollfxGroups = null;")
}
