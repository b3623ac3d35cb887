package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	m := Default()

	require.NoError(t, m.Validate())
	assert.Equal(t, "~/assets/icons", m.Icons.Location)
	assert.Equal(t, "AppIcon", m.Icons.ComponentName)
	assert.Equal(t, "Icon", m.Icons.TypeName)
	assert.True(t, m.Icons.WarnMissingIcon)
	assert.Equal(t, 8, m.Build.Workers)
	assert.Equal(t, 3030, m.Dev.Port)
	assert.Equal(t, 100*time.Millisecond, m.Dev.Debounce)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	// --- Arrange ---
	m := Default()
	m.Icons.ComponentName = "app-icon"
	m.Icons.PackageName = "1icons"
	m.Build.Workers = 0
	m.Dev.Port = 70000

	// --- Act ---
	err := m.Validate()

	// --- Assert ---
	require.Error(t, err)
	for _, want := range []string{"icons.component_name", "icons.package_name", "build.workers", "dev.port"} {
		assert.ErrorContains(t, err, want)
	}
	assert.NotContains(t, err.Error(), "icons.type_name")
}

func TestValidate_ComponentAndTypeMustDiffer(t *testing.T) {
	m := Default()
	m.Icons.TypeName = m.Icons.ComponentName

	assert.ErrorContains(t, m.Validate(), "must differ")
}

func TestValidate_RejectsNamesClashingWithArtifactImports(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(m *Model)
		want   string
	}{
		{"type name is templ", func(m *Model) { m.Icons.TypeName = "templ" }, `"templ"`},
		{"component name is iconrt", func(m *Model) { m.Icons.ComponentName = "iconrt" }, `"iconrt"`},
		{"type name is io", func(m *Model) { m.Icons.TypeName = "io" }, `"io"`},
		{"component name is init", func(m *Model) { m.Icons.ComponentName = "init" }, `"init"`},
		{"type name is the keys func of another", func(m *Model) {
			m.Icons.ComponentName = "GlyphKeys"
			m.Icons.TypeName = "Glyph"
		}, `"GlyphKeys"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Default()
			tc.mutate(m)

			err := m.Validate()

			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestApplyEnv_OverridesOnlySetVariables(t *testing.T) {
	// --- Arrange ---
	m := Default()
	environ := map[string]string{
		"ICONREG_ICONS_COMPONENT_NAME":    "Glyph",
		"ICONREG_ICONS_WARN_MISSING_ICON": "false",
		"ICONREG_BUILD_WORKERS":           "2",
		"ICONREG_DEV_DEBOUNCE":            "250ms",
		"UNRELATED":                       "x",
	}

	// --- Act ---
	err := ApplyEnv(m, environ)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "Glyph", m.Icons.ComponentName)
	assert.False(t, m.Icons.WarnMissingIcon)
	assert.Equal(t, 2, m.Build.Workers)
	assert.Equal(t, 250*time.Millisecond, m.Dev.Debounce)
	assert.Equal(t, "Icon", m.Icons.TypeName, "unset variables keep their value")
	assert.Equal(t, 3030, m.Dev.Port)
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	err := ApplyEnv(Default(), map[string]string{"ICONREG_DEV_PORT": "not-a-number"})

	assert.ErrorContains(t, err, "parse env")
}
