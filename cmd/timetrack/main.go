package main

import (
	"os"

	"github.com/psantana5/gpu-keepalive/cmd/timetrack/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[0], os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
