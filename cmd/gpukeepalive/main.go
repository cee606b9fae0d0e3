package main

import (
	"os"

	"github.com/psantana5/gpu-keepalive/cmd/gpukeepalive/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
