//go:build llama

package session

// cgo link directives for the in-process llama engine.
// The rpath of $ORIGIN lets the loader find libllama.so next to the binary
// in ./bin, and -L points the linker at the same directory.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
