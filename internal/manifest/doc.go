// Package manifest loads rule declarations and targets from HCL files.
//
// A rule manifest declares the schema of a rule and names the Go
// implementation bound to it:
//
//	rule "cxx_toolchain" {
//	  description = "A C++ compiler and linker."
//	  toolchain   = true
//	  impl        = "cxx_toolchain"
//	  provides    = ["compiler", "linker"]
//
//	  attr "link_style" {
//	    type    = enum("shared", "static")
//	    default = "shared"
//	    doc     = "How binaries are linked."
//	  }
//	}
//
// An attribute with neither a default nor an option type is required. A
// `validation` block may add `min`, `max`, `pattern` and `non_empty`.
//
// Targets configure rules. Dependency attributes name other targets, either
// by label string or through the `target` object:
//
//	target "app" {
//	  rule      = "cxx_library"
//	  toolchain = target.cxx
//	  srcs      = ["main.cc"]
//	}
package manifest
