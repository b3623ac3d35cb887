package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/iconreg/internal/fragment"
)

func TestIdentifier(t *testing.T) {
	tests := []struct{ key, want string }{
		{"arrow-left", "IconArrowLeft"},
		{"social/github", "IconSocialGithub"},
		{"chevronDown", "IconChevronDown"},
		{"24/solid_check", "Icon24SolidCheck"},
		{"logo.min", "IconLogoMin"},
		{"ünïcode-glyph", "IconÜnïcodeGlyph"},
		{"---", "Icon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Identifier("Icon", tt.key), "key %q", tt.key)
	}
}

func TestDedupe(t *testing.T) {
	icons := []fragment.ProcessedIcon{
		{Key: "arrow-left", Path: "arrow-left.svg"},
		{Key: "arrow_left", Path: "arrow_left.svg"},
		{Key: "arrow-left", Path: "copy/arrow-left.svg"},
		{Key: "---", Path: "---.svg"},
		{Key: "keys", Path: "keys.svg"},
		{Key: "home", Path: "home.svg"},
	}

	kept, dropped := Dedupe(icons, defaultOptions())

	require.Len(t, kept, 2)
	assert.Equal(t, "arrow-left", kept[0].Key)
	assert.Equal(t, "home", kept[1].Key)

	require.Len(t, dropped, 4)
	assert.Equal(t, "arrow_left.svg", dropped[0].Icon.Path)
	assert.Contains(t, dropped[0].Reason, "identifier IconArrowLeft already provided by arrow-left.svg")
	assert.Equal(t, "copy/arrow-left.svg", dropped[1].Icon.Path)
	assert.Contains(t, dropped[1].Reason, `key "arrow-left" already provided`)
	assert.Contains(t, dropped[2].Reason, "no identifier characters")
	assert.Contains(t, dropped[3].Reason, "IconKeys already provided by the generated IconKeys")
}
