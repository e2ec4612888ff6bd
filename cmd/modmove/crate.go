package main

import (
	"github.com/ryotapoi/modmove/internal/core"
)

// loadIndex reads the crate under root, parses it and builds the reference
// index. Callers own closing the index.
func loadIndex(root string) (*core.Program, *core.Index, core.Options, error) {
	cfg, err := core.LoadConfig(root)
	if err != nil {
		return nil, nil, core.Options{}, err
	}
	files, err := core.LoadCrate(root)
	if err != nil {
		return nil, nil, core.Options{}, err
	}
	prog, err := core.ParseProgram(files)
	if err != nil {
		return nil, nil, core.Options{}, err
	}
	ix, err := core.BuildIndex(prog)
	if err != nil {
		return nil, nil, core.Options{}, err
	}
	return prog, ix, cfg.Options(), nil
}
