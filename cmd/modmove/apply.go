package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ryotapoi/modmove/internal/core"
)

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	root := fs.String("root", ".", "crate root directory")
	format := fs.String("format", "text", "output format (json or text)")
	dest := fs.String("dest", "", "destination module path (e.g. crate::mod2)")
	dryRun := fs.Bool("dry-run", false, "show the result without writing files")
	var items multiString
	fs.Var(&items, "item", "declaration to move (repeatable, e.g. crate::mod1::foo)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("--item is required")
	}
	if *dest == "" {
		return fmt.Errorf("--dest is required")
	}

	prog, ix, opts, err := loadIndex(*root)
	if err != nil {
		return err
	}
	defer ix.Close()

	after, plan, err := core.ApplyMove(prog, ix, core.MoveOptions{Items: items, Dest: *dest}, opts)
	if err != nil {
		return err
	}

	if !*dryRun {
		if err := core.WriteCrate(*root, prog.Files, after); err != nil {
			return err
		}
	}

	switch *format {
	case "json":
		return printApplyJSON(os.Stdout, prog, plan, *dryRun)
	default:
		printApplyText(os.Stdout, prog, plan, *dryRun)
		return nil
	}
}
