package main

import (
	"os"

	"github.com/joshu-sajeev/queuectl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
