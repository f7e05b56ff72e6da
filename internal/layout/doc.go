// Package layout defines the in-memory keymap layout document: metadata,
// ordered layers of key bindings, document-local custom behaviors (macros,
// hold-taps and combos), Kconfig overrides and include directives.
//
// Documents are read from and written to JSON. The package also owns the
// structural invariants that hold independently of any keyboard profile
// (unique layer names, uniform binding counts, an acyclic behavior graph).
// Profile-dependent checks live in the registry package.
package layout
