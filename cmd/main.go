package main

import (
	"os"

	"github.com/knnymrls/whoknows/cmd/whoknows"
)

func main() {
	if err := whoknows.Execute(); err != nil {
		os.Exit(1)
	}
}
