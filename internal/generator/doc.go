/*
Package generator turns a validated layout document into firmware source
text: a devicetree keymap fragment and a Kconfig options file.

Output is produced by substituting named placeholders into the profile's
templates. Templates use HCL template syntax and are evaluated with string
variables only, so a template cannot call functions or reach anything but
the generated fragments:

	#include <behaviors.dtsi>

	/ {
	${behaviors}${combos}${keymap}};

Keymap templates may use keyboard, title, includes, layer_defines,
behaviors, combos, keymap and layers. Kconfig templates may use keyboard,
firmware and kconfig. A profile without templates gets the built-in
defaults.

Generation is a pure function of the document, the profile and the
firmware variant id: it performs no I/O and repeated calls yield identical
text.
*/
package generator
