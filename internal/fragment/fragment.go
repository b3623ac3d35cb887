// Package fragment reads one SVG source file and turns it into a
// ProcessedIcon: its lookup key, the imports its render fragment needs, and
// the fragment expression itself.
package fragment

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vk/iconreg/internal/compiler"
	"golang.org/x/tools/go/ast/astutil"
)

// ErrInvalidEncoding is returned for sources that are not valid UTF-8.
var ErrInvalidEncoding = errors.New("source is not valid UTF-8")

// ProcessedIcon is one successfully compiled source file.
type ProcessedIcon struct {
	Key            string
	Path           string
	Imports        []string
	RenderFunction string
}

// Processor compiles source files found under a single source directory.
type Processor struct {
	sourceDir string
	compiler  compiler.Compiler
}

// NewProcessor returns a Processor for files under sourceDir, which should
// carry a trailing separator.
func NewProcessor(sourceDir string, c compiler.Compiler) *Processor {
	return &Processor{sourceDir: sourceDir, compiler: c}
}

// Process reads and compiles the file at path.
func (p *Processor) Process(path string) (ProcessedIcon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ProcessedIcon{}, fmt.Errorf("read: %w", err)
	}
	if !utf8.Valid(raw) {
		return ProcessedIcon{}, ErrInvalidEncoding
	}

	code, err := p.compiler.Compile(string(raw))
	if err != nil {
		return ProcessedIcon{}, fmt.Errorf("compile: %w", err)
	}

	imports, render, err := Split(code)
	if err != nil {
		return ProcessedIcon{}, fmt.Errorf("extract fragment: %w", err)
	}

	return ProcessedIcon{
		Key:            Key(p.sourceDir, path),
		Path:           path,
		Imports:        imports,
		RenderFunction: render,
	}, nil
}

// Key strips sourceDir and the file extension from path and normalises the
// remainder to forward slashes.
func Key(sourceDir, path string) string {
	rel := strings.TrimPrefix(path, sourceDir)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel)
}

// Split separates compiled module code into its import paths and the
// source text of the Render value.
func Split(code string) ([]string, string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fragment.go", code, parser.SkipObjectResolution)
	if err != nil {
		return nil, "", err
	}

	var imports []string
	for _, group := range astutil.Imports(fset, file) {
		for _, spec := range group {
			path, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				return nil, "", fmt.Errorf("import %s: %w", spec.Path.Value, err)
			}
			imports = append(imports, path)
		}
	}

	expr := renderValue(file)
	if expr == nil {
		return nil, "", fmt.Errorf("no %s value in compiled code", compiler.RenderName)
	}

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, expr); err != nil {
		return nil, "", err
	}
	return imports, buf.String(), nil
}

func renderValue(file *ast.File) ast.Expr {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				if name.Name == compiler.RenderName && i < len(vs.Values) {
					return vs.Values[i]
				}
			}
		}
	}
	return nil
}
