// Package main provides the entry point for the memsrv agent memory server.
package main

import (
	"os"

	"github.com/aman-cerp/memsrv/cmd/memsrv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
