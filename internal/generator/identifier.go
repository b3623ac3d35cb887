package generator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vk/iconreg/internal/fragment"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Identifier returns the Go constant name for key: typeName followed by the
// title-cased words of key. "arrow-left" under "Icon" becomes IconArrowLeft.
func Identifier(typeName, key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	caser := cases.Title(language.Und, cases.NoLower)

	var b strings.Builder
	b.WriteString(typeName)
	for _, w := range words {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// Collision describes an icon dropped from a batch before generation.
type Collision struct {
	Icon   fragment.ProcessedIcon
	Reason string
}

// Dedupe keeps the first icon for every key and constant identifier and
// drops later icons that would clash with it or with one of the generated
// declarations. Icons whose key yields no identifier characters are dropped
// as well.
func Dedupe(icons []fragment.ProcessedIcon, opts Options) ([]fragment.ProcessedIcon, []Collision) {
	var (
		kept    = make([]fragment.ProcessedIcon, 0, len(icons))
		dropped []Collision
		byKey   = make(map[string]string, len(icons))
		byIdent = make(map[string]string, len(icons))
	)
	for _, name := range opts.declarations() {
		byIdent[name] = "the generated " + name
	}

	for _, icon := range icons {
		ident := Identifier(opts.TypeName, icon.Key)
		switch {
		case ident == opts.TypeName:
			dropped = append(dropped, Collision{Icon: icon, Reason: fmt.Sprintf("key %q has no identifier characters", icon.Key)})
		case byKey[icon.Key] != "":
			dropped = append(dropped, Collision{Icon: icon, Reason: fmt.Sprintf("key %q already provided by %s", icon.Key, byKey[icon.Key])})
		case byIdent[ident] != "":
			dropped = append(dropped, Collision{Icon: icon, Reason: fmt.Sprintf("identifier %s already provided by %s", ident, byIdent[ident])})
		default:
			byKey[icon.Key] = icon.Path
			byIdent[ident] = icon.Path
			kept = append(kept, icon)
		}
	}
	return kept, dropped
}
