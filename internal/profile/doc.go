/*
Package profile describes a physical keyboard and its firmware variants: key
count, the system behavior catalog, code generation templates, Kconfig
defaults and validation limits.

Profiles are written in HCL:

	keyboard "corne" {
	  key_count = 42
	  row_size  = 12

	  behavior "kp" {
	    description = "Key press"
	    param "keycode" { type = keycode }
	  }

	  templates {
	    keymap  = "corne.keymap.tpl"
	    kconfig = "corne.conf.tpl"
	  }

	  kconfig_defaults = { ZMK_SLEEP = false }

	  firmware "zmk_main" {
	    kconfig = { ZMK_SLEEP = true }
	  }

	  validation {
	    max_layers = 10
	  }
	}

A Catalog holds every profile found under one or more paths, keyed by
keyboard id.
*/
package profile
