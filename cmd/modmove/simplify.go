package main

import (
	"flag"
	"os"

	"github.com/ryotapoi/modmove/internal/core"
)

func runSimplify(args []string) error {
	fs := flag.NewFlagSet("simplify", flag.ContinueOnError)
	root := fs.String("root", ".", "crate root directory")
	format := fs.String("format", "text", "output format (json or text)")
	dryRun := fs.Bool("dry-run", false, "show the result without writing files")
	var files multiString
	fs.Var(&files, "file", "restrict to this file (repeatable, crate-relative)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}

	prog, ix, opts, err := loadIndex(*root)
	if err != nil {
		return err
	}
	defer ix.Close()

	result, err := core.Simplify(prog, ix, core.SimplifyOptions{
		Files:        files,
		ExcludePaths: opts.ExcludePaths,
	})
	if err != nil {
		return err
	}

	if !*dryRun && len(result.Edits) > 0 {
		after, err := core.ApplyEdits(prog, result.Edits)
		if err != nil {
			return err
		}
		if err := core.WriteCrate(*root, prog.Files, after); err != nil {
			return err
		}
	}

	switch *format {
	case "json":
		return printJSON(os.Stdout, result)
	default:
		printSimplifyText(os.Stdout, result)
		return nil
	}
}
