package main

import (
	"os"

	"github.com/avdeev/steamloot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
