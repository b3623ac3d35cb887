// Package compiler turns SVG markup into Go render fragments.
//
// The compiler works in "module" mode: its output is a self-contained Go
// source unit holding the imports the fragment needs and a package-level
// Render value of type templ.Component. Callers that embed fragments into a
// larger file are expected to lift the imports and the Render expression
// out of that unit.
//
//	package fragment
//
//	import (
//		"context"
//		"io"
//
//		"github.com/a-h/templ"
//	)
//
//	var Render = templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
//		_, err := io.WriteString(w, "<svg>...</svg>")
//		return err
//	})
package compiler
