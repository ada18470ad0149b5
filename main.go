package main

import (
	"os"

	"github.com/siteauditor/site-auditor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
