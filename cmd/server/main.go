// Command server runs the exam server: a line-oriented TCP protocol
// over a Postgres-backed store. Follows an init sequence of config ->
// logger -> db -> schema -> repositories -> graceful shutdown,
// expressed as a github.com/spf13/cobra command instead of a flagless
// binary.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
