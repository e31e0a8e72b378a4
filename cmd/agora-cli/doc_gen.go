//go:build ignore
// +build ignore

package main

import (
	"log"

	agora "github.com/mithrel/agora/internal/cli"
	"github.com/spf13/cobra/doc"
)

func main() {
	root := agora.NewRootCmd()

	if err := doc.GenMarkdownTree(root, "./docs/markdown"); err != nil {
		log.Fatal(err)
	}

	header := &doc.GenManHeader{
		Title:   "AGORA-CLI",
		Section: "1",
	}
	if err := doc.GenManTree(root, header, "./docs/man"); err != nil {
		log.Fatal(err)
	}
}
