package generator

import (
	"errors"
	"fmt"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/iconreg/internal/fragment"
	"golang.org/x/tools/imports"
)

const (
	// Header marks the artifact as generated for gofmt, linters and reviewers.
	Header = "// Code generated by iconreg. DO NOT EDIT."

	templImport   = "github.com/a-h/templ"
	runtimeImport = "github.com/vk/iconreg/iconrt"
)

// Options controls the names and behaviour baked into the artifact.
type Options struct {
	PackageName     string
	ComponentName   string
	TypeName        string
	WarnMissingIcon bool
	Dev             bool
}

// reservedNames cannot be declared by the artifact: the packages every
// artifact imports, and names Go gives special meaning at package level.
var reservedNames = []string{"context", "io", "templ", "iconrt", "init", "_"}

// Validate reports names that cannot be used as Go identifiers or that
// would clash inside the generated file.
func (o Options) Validate() error {
	var errs []error
	for _, f := range []struct{ field, value string }{
		{"package name", o.PackageName},
		{"component name", o.ComponentName},
		{"type name", o.TypeName},
	} {
		if !token.IsIdentifier(f.value) {
			errs = append(errs, fmt.Errorf("%s %q is not a valid Go identifier", f.field, f.value))
		}
	}
	if o.ComponentName == o.TypeName {
		errs = append(errs, fmt.Errorf("component name and type name must differ, both are %q", o.TypeName))
	}
	if err := o.CheckNames(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CheckNames reports generated declarations that collide with each other,
// with the packages every artifact imports, or with init.
func (o Options) CheckNames() error {
	return o.checkClashes(reservedNames)
}

// checkClashes reports generated declarations that collide with each other
// or with one of the given import names.
func (o Options) checkClashes(importNames []string) error {
	var errs []error
	owners := make(map[string]string)
	for _, name := range importNames {
		owners[name] = "an imported package"
	}
	for _, name := range append([]string{o.TypeName}, o.declarations()...) {
		if owner, ok := owners[name]; ok {
			errs = append(errs, fmt.Errorf("generated name %q clashes with %s", name, owner))
			continue
		}
		owners[name] = "another generated name"
	}
	return errors.Join(errs...)
}

// ImportName returns the name a package is referred to by when imported
// without an alias, following the goimports convention: the last path
// element without a major version suffix, a "go-" prefix or anything from
// the first '.' or '-' on.
func ImportName(path string) string {
	elems := strings.Split(path, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	name = strings.TrimPrefix(name, "go-")
	if i := strings.IndexAny(name, ".-"); i >= 0 {
		name = name[:i]
	}
	return name
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

// LookupName is the name of the generated lookup table.
func (o Options) LookupName() string {
	return o.ComponentName + "_lookup"
}

func (o Options) keysFunc() string {
	return o.TypeName + "Keys"
}

func (o Options) setName() string {
	if o.ComponentName == "" {
		return "set"
	}
	return strings.ToLower(o.ComponentName[:1]) + o.ComponentName[1:] + "Set"
}

// declarations lists the package-level names the artifact always declares.
func (o Options) declarations() []string {
	return []string{o.ComponentName, o.LookupName(), o.keysFunc(), o.setName()}
}

// Imports returns the sorted union of the imports of all icons.
func Imports(icons []fragment.ProcessedIcon) []string {
	seen := make(map[string]struct{})
	for _, icon := range icons {
		for _, path := range icon.Imports {
			seen[path] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func importNames(icons []fragment.ProcessedIcon) []string {
	paths := Imports(icons)
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		names = append(names, ImportName(path))
	}
	return names
}

// Generate renders icons, in order, into formatted Go source. Icons are
// expected to be deduplicated already.
func Generate(icons []fragment.ProcessedIcon, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := opts.checkClashes(importNames(icons)); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "package %s\n\n", opts.PackageName)

	writeImports(&b, icons)
	writeKeyType(&b, icons, opts)
	writeLookup(&b, icons, opts)
	writeComponent(&b, opts)

	src, err := imports.Process(opts.PackageName+".go", []byte(b.String()), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format artifact: %w", err)
	}
	return src, nil
}

func writeImports(b *strings.Builder, icons []fragment.ProcessedIcon) {
	paths := Imports(icons)
	for _, required := range []string{templImport, runtimeImport} {
		i := sort.SearchStrings(paths, required)
		if i == len(paths) || paths[i] != required {
			paths = append(paths, required)
			sort.Strings(paths)
		}
	}

	b.WriteString("import (\n")
	for _, path := range paths {
		fmt.Fprintf(b, "\t%s\n", strconv.Quote(path))
	}
	b.WriteString(")\n\n")
}

func writeKeyType(b *strings.Builder, icons []fragment.ProcessedIcon, opts Options) {
	fmt.Fprintf(b, "// %s is the set of icon keys known to %s.\n", opts.TypeName, opts.ComponentName)
	fmt.Fprintf(b, "type %s string\n\n", opts.TypeName)

	if len(icons) > 0 {
		b.WriteString("const (\n")
		for _, icon := range icons {
			fmt.Fprintf(b, "\t%s %s = %s\n", Identifier(opts.TypeName, icon.Key), opts.TypeName, strconv.Quote(icon.Key))
		}
		b.WriteString(")\n\n")
	}

	fmt.Fprintf(b, "// %s returns every %s in lookup order.\n", opts.keysFunc(), opts.TypeName)
	fmt.Fprintf(b, "func %s() []%s {\n", opts.keysFunc(), opts.TypeName)
	fmt.Fprintf(b, "\treturn []%s{", opts.TypeName)
	for i, icon := range icons {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Identifier(opts.TypeName, icon.Key))
	}
	b.WriteString("}\n}\n\n")
}

func writeLookup(b *strings.Builder, icons []fragment.ProcessedIcon, opts Options) {
	if len(icons) == 0 {
		fmt.Fprintf(b, "var %s = map[%s]templ.Component{}\n\n", opts.LookupName(), opts.TypeName)
		return
	}
	fmt.Fprintf(b, "var %s = map[%s]templ.Component{\n", opts.LookupName(), opts.TypeName)
	for _, icon := range icons {
		fmt.Fprintf(b, "\t%s: %s,\n", Identifier(opts.TypeName, icon.Key), icon.RenderFunction)
	}
	b.WriteString("}\n\n")
}

func writeComponent(b *strings.Builder, opts Options) {
	set := opts.setName()
	warn := opts.WarnMissingIcon && opts.Dev

	fmt.Fprintf(b, "var %s = iconrt.New(%s, %s, %t)\n\n", set, strconv.Quote(opts.ComponentName), opts.LookupName(), warn)
	fmt.Fprintf(b, "// %s renders the icon registered under icon, or an empty <svg> when\n", opts.ComponentName)
	b.WriteString("// there is none.\n")
	fmt.Fprintf(b, "func %s(icon %s) templ.Component {\n", opts.ComponentName, opts.TypeName)
	fmt.Fprintf(b, "\treturn %s.Component(icon)\n", set)
	b.WriteString("}\n")
}
