// Package registry resolves behavior references and validates documents.
//
// A Registry is built once per validation pass. System behaviors from the
// keyboard profile are inserted first, then the document's custom behaviors,
// which shadow system behaviors of the same name. Validation walks every
// binding and every custom behavior, checking that each reference resolves
// and that parameters match the resolved behavior's schema, and compares
// document sizes against the profile's limits.
//
// Validation is the single gate before code generation: problems are
// collected into ValidationErrors rather than reported one at a time.
package registry
