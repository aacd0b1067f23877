// Package manifests ships the built-in course manifest used when no manifest
// file is supplied on the command line.
package manifests

import (
	_ "embed"
)

//go:embed ds101.yaml
var ds101 []byte

// BuiltinName identifies the embedded manifest in error messages.
const BuiltinName = "builtin:ds101"

// Builtin returns a copy of the embedded default manifest content.
func Builtin() []byte {
	out := make([]byte, len(ds101))
	copy(out, ds101)
	return out
}
