/*
Package query implements the path language used to address parts of a layout
document, both for local reads and edits and for importing fragments from
other documents.

A query is `$` (the document root) followed by segments:

	.field              field access, or lookup by name on layers/behaviors
	["name"]            quoted lookup for names that are not identifiers
	[3]  [-1]           index (negative counts from the end)
	[1:3] [:2] [*]      half-open slice
	[?(@.name=="Base")] filter predicate, == or !=

Aliases: `:Base` is `$.layers.Base`, `:behaviors` is `$.custom_behaviors`,
`:meta` is `$.title,$.author,$.description`. A comma separates independent
paths whose matches are concatenated in order.

Parsing and evaluation are separate so callers can cache compiled queries.
Evaluation is pure and never fails: a query that selects nothing returns an
empty slice.
*/
package query
