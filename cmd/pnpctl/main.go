// Command pnpctl drives a four-nozzle pick-and-place head from the command
// line: homing, jogging, actuating outputs and reading sensor values.
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
