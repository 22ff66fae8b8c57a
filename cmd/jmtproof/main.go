package main

import (
	"os"

	"github.com/forestrie/go-merklelog/jmt/cmd/jmtproof/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
