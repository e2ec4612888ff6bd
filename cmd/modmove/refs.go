package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ryotapoi/modmove/internal/core"
)

func runRefs(args []string) error {
	fs := flag.NewFlagSet("refs", flag.ContinueOnError)
	root := fs.String("root", ".", "crate root directory")
	format := fs.String("format", "text", "output format (json or text)")
	target := fs.String("target", "", "declaration path (e.g. crate::mod1::foo)")
	var kinds multiString
	fs.Var(&kinds, "kind", "reference kind filter: expr or use (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}
	if *target == "" {
		return fmt.Errorf("--target is required")
	}

	_, ix, opts, err := loadIndex(*root)
	if err != nil {
		return err
	}
	defer ix.Close()

	result, err := ix.Refs(core.RefsOptions{
		Target:       *target,
		Kinds:        kinds,
		ExcludePaths: opts.ExcludePaths,
	})
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		return printJSON(os.Stdout, result)
	default:
		printRefsText(os.Stdout, result)
		return nil
	}
}
