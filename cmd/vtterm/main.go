// Command vtterm drives the terminal engine against a real PTY and a real
// child shell: a thin CLI harness over the headlessterm package, wiring the
// line discipline into an actual event loop. Host input bytes are forwarded
// as they arrive; the keys and mouse encoders are not used here.
package main

import (
	"fmt"
	"os"
)

func main() {
	args, command := splitCommandArgs(os.Args[1:])
	commandArgs = command
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
