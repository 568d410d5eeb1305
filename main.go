// main holds the entry logic for the guidepost CLI.
package main

import (
	"github.com/screenlab/guidepost/cmd"
	"github.com/screenlab/guidepost/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("guidepost failed", err)
	}
}
