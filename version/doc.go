// Package version reports the build version of the binary, reported by
// /info and `verbatim version`.
package version
