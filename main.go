package main

import (
	"os"

	"github.com/guardpost/guardpost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
