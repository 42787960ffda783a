// Command llamabridge serves a local LLM session and bundled resources over
// HTTP and offers one-shot CLI access to the same operations.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
