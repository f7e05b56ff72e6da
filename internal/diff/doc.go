// Package diff computes structural change sets between layout documents and
// applies them back through the edit engine.
//
// Layers are identified by name. A layer present in only one document, or
// whose binding count differs, is a remove and/or add; layers present in
// both are compared binding by binding. A change set is an ordered list:
// metadata, layer removals, layer additions, layer moves, binding changes,
// then custom behavior removals, additions and changes. Patching replays the
// list in that order as a single all-or-nothing edit batch.
//
// Unknown top-level document fields are not part of the change set.
package diff
