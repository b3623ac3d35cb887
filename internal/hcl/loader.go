package hcl

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/iconreg/internal/config"
	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// DefaultFilename is looked up in the project root when no file is given.
const DefaultFilename = "iconreg.hcl"

// Loader is the HCL implementation of config.Loader.
type Loader struct {
	root    string
	environ map[string]string
}

// NewLoader creates a loader whose files see root as `root` and environ as
// `env`. A nil environ exposes the process environment.
func NewLoader(root string, environ map[string]string) *Loader {
	if environ == nil {
		environ = processEnv()
	}
	return &Loader{root: root, environ: environ}
}

// fileRoot is the top-level schema of a configuration file.
type fileRoot struct {
	Icons *iconsBlock `hcl:"icons,block"`
	Build *buildBlock `hcl:"build,block"`
	Dev   *devBlock   `hcl:"dev,block"`
}

type iconsBlock struct {
	Location        *string `hcl:"location,optional"`
	ComponentName   *string `hcl:"component_name,optional"`
	TypeName        *string `hcl:"type_name,optional"`
	PackageName     *string `hcl:"package_name,optional"`
	Filename        *string `hcl:"filename,optional"`
	WarnMissingIcon *bool   `hcl:"warn_missing_icon,optional"`
}

type buildBlock struct {
	Dir     *string `hcl:"dir,optional"`
	Workers *int    `hcl:"workers,optional"`
}

type devBlock struct {
	Port     *int    `hcl:"port,optional"`
	Debounce *string `hcl:"debounce,optional"`
}

// Load parses the file at path and overlays it onto a copy of base.
func (l *Loader) Load(ctx context.Context, path string, base *config.Model) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, l.evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	out := *base
	if err := overlay(&out, &root); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	logger.Debug("HCL loading complete.", "path", path)
	return &out, nil
}

func (l *Loader) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(l.environ))
	for k, v := range l.environ {
		if hclsyntax.ValidIdentifier(k) {
			vars[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":  cty.ObjectVal(vars),
			"root": cty.StringVal(l.root),
		},
		Functions: map[string]function.Function{
			"lower":    stdlib.LowerFunc,
			"upper":    stdlib.UpperFunc,
			"join":     stdlib.JoinFunc,
			"coalesce": stdlib.CoalesceFunc,
		},
	}
}

func overlay(m *config.Model, root *fileRoot) error {
	if b := root.Icons; b != nil {
		setString(&m.Icons.Location, b.Location)
		setString(&m.Icons.ComponentName, b.ComponentName)
		setString(&m.Icons.TypeName, b.TypeName)
		setString(&m.Icons.PackageName, b.PackageName)
		setString(&m.Icons.Filename, b.Filename)
		if b.WarnMissingIcon != nil {
			m.Icons.WarnMissingIcon = *b.WarnMissingIcon
		}
	}
	if b := root.Build; b != nil {
		setString(&m.Build.Dir, b.Dir)
		if b.Workers != nil {
			m.Build.Workers = *b.Workers
		}
	}
	if b := root.Dev; b != nil {
		if b.Port != nil {
			m.Dev.Port = *b.Port
		}
		if b.Debounce != nil {
			d, err := time.ParseDuration(*b.Debounce)
			if err != nil {
				return fmt.Errorf("dev.debounce: %w", err)
			}
			m.Dev.Debounce = d
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
