package main

import (
	"os"

	"github.com/0chain/s3replicate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
