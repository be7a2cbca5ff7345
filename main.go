package main

import (
	"os"

	"github.com/webpress/webpress/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
