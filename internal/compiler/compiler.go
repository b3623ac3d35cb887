package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// RenderName is the identifier of the fragment value in compiled output.
const RenderName = "Render"

// ErrNoSVGRoot is returned when the markup holds no <svg> element.
var ErrNoSVGRoot = errors.New("no <svg> root element")

// fragmentImports are the packages every compiled fragment references.
var fragmentImports = []string{"context", "io", "github.com/a-h/templ"}

// Compiler compiles one SVG document into Go module code.
type Compiler interface {
	Compile(source string) (string, error)
}

// SVG is the x/net/html backed Compiler.
type SVG struct{}

// New returns an SVG compiler.
func New() *SVG {
	return &SVG{}
}

// Compile parses source, extracts its first <svg> element and returns a Go
// unit rendering that element's canonical markup.
func (c *SVG) Compile(source string) (string, error) {
	markup, err := Markup(source)
	if err != nil {
		return "", err
	}
	return moduleCode(markup), nil
}

// Markup returns the canonical markup of the first <svg> element in source.
// Whitespace-only text between elements is dropped.
func Markup(source string) (string, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	root := findSVG(doc)
	if root == nil {
		return "", ErrNoSVGRoot
	}
	trimWhitespace(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("render markup: %w", err)
	}
	return buf.String(), nil
}

func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "svg" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSVG(c); found != nil {
			return found
		}
	}
	return nil
}

func trimWhitespace(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			n.RemoveChild(c)
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode:
			trimWhitespace(c)
		}
		c = next
	}
}

func moduleCode(markup string) string {
	var b strings.Builder
	b.WriteString("package fragment\n\n")
	b.WriteString("import (\n")
	for _, path := range fragmentImports {
		b.WriteString("\t")
		b.WriteString(strconv.Quote(path))
		b.WriteString("\n")
	}
	b.WriteString(")\n\n")
	b.WriteString("var ")
	b.WriteString(RenderName)
	b.WriteString(" = templ.ComponentFunc(func(_ context.Context, w io.Writer) error {\n")
	b.WriteString("\t_, err := io.WriteString(w, ")
	b.WriteString(strconv.Quote(markup))
	b.WriteString(")\n")
	b.WriteString("\treturn err\n")
	b.WriteString("})\n")
	return b.String()
}
