package main

import (
	"os"

	"github.com/sekaihub/apphashd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
