package main

import (
	"os"

	"github.com/mcdev12/chooser/go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
