// Command runtimed is the runtime host's executable: it wires
// internal/cli's start/stop/status/configure commands to
// internal/runtimehost, which assembles every pkg/ component into a
// running process.
package main

import (
	"os"

	"github.com/jido/runtime/internal/cli"
	"github.com/jido/runtime/internal/runtimehost"
)

func main() {
	if err := cli.Execute(runtimehost.New()); err != nil {
		os.Exit(1)
	}
}
