// Package generator renders processed icons into the registry artifact: one
// Go source file holding the key type and its constants, the lookup table
// from key to render fragment, and the dispatching component function.
//
// Generation is deterministic: the same icons in the same order always
// produce byte-identical output, and the import preamble is the sorted union
// of every fragment's imports, so it does not depend on which icon happens
// to come first.
package generator
