// This file is kept for backward compatibility.
// The actual CLI application is in cmd/isoliner/
// Build with: go build -o isoliner ./cmd/isoliner
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "Please build from cmd/isoliner: go build -o isoliner ./cmd/isoliner")
	os.Exit(1)
}
