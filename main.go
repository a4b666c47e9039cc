package main

import (
	"log"

	"github.com/anoixa/pixly/cmd"
	"github.com/anoixa/pixly/config"
)

func main() {
	log.Printf("pixly %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
