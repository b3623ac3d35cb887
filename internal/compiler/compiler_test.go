package compiler

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkup_Canonicalizes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "self closing path",
			source: `<svg><path d="M0 0"/></svg>`,
			want:   `<svg><path d="M0 0"></path></svg>`,
		},
		{
			name: "prolog and whitespace",
			source: `<?xml version="1.0"?>
<svg viewBox="0 0 24 24">
  <!-- arrow -->
  <path d="M1 1"/>
</svg>`,
			want: `<svg viewBox="0 0 24 24"><path d="M1 1"></path></svg>`,
		},
		{
			name:   "svg attribute casing",
			source: `<svg viewbox="0 0 1 1"><lineargradient id="g"></lineargradient></svg>`,
			want:   `<svg viewBox="0 0 1 1"><linearGradient id="g"></linearGradient></svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Markup(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarkup_RejectsMissingRoot(t *testing.T) {
	for _, source := range []string{"", "   \n", "<div>not an icon</div>"} {
		_, err := Markup(source)
		require.ErrorIs(t, err, ErrNoSVGRoot, "source %q", source)
	}
}

func TestCompile_ProducesParsableModule(t *testing.T) {
	code, err := New().Compile(`<svg><path d="M0 0"/></svg>`)
	require.NoError(t, err)

	file, err := parser.ParseFile(token.NewFileSet(), "fragment.go", code, 0)
	require.NoError(t, err)

	var imports []string
	for _, spec := range file.Imports {
		imports = append(imports, spec.Path.Value)
	}
	assert.Equal(t, []string{`"context"`, `"io"`, `"github.com/a-h/templ"`}, imports)
	assert.NotNil(t, file.Scope.Lookup(RenderName))
	assert.Contains(t, code, `io.WriteString(w, "<svg><path d=\"M0 0\"></path></svg>")`)
}

func TestCompile_PropagatesErrors(t *testing.T) {
	_, err := New().Compile("")
	require.ErrorIs(t, err, ErrNoSVGRoot)
}
