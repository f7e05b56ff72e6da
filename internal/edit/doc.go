/*
Package edit applies ordered batches of operations to a layout document.

A batch runs against a clone of the input document. Every mutating
operation is followed by a structural check (and a registry validation when
the engine has a profile); the first failure aborts the batch and the input
document is returned untouched. Only a batch that fully succeeds produces a
new document.

Operations that read from other documents use source references:

	other.json$.layers[?(@.name=="Nav")]   query against other.json
	other.json:Nav                         the layer Nav of other.json
	other.json:Base[0]                     any alias query, with segments
	other.json:behaviors                   the custom behaviors of other.json
	$.layers.Base                          query against the working copy

A literal set value is broadcast to every target. Values read from a source
pair with the targets one to one.

Each distinct source file is loaded at most once per batch.

Checks that span operations run when the batch ends. Removing a layer that a
combo still references fails at that point, attributed to the remove-layer
operation, unless a later operation in the same batch removed the combo.
WithDeferredValidation moves every check to the end of the batch.
*/
package edit
