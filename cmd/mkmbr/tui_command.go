package main

import (
	"os"

	"mkmbr/internal/mbr"
	"mkmbr/internal/tui/inspect"
)

func runTUI(path string) error {
	ents, err := mbr.Detect(path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	return inspect.Run(path, ents, fi.Size())
}
