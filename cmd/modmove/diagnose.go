package main

import (
	"flag"
	"os"

	"github.com/ryotapoi/modmove/internal/core"
)

func runDiagnose(args []string) error {
	fs := flag.NewFlagSet("diagnose", flag.ContinueOnError)
	root := fs.String("root", ".", "crate root directory")
	format := fs.String("format", "text", "output format (json or text)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}

	files, err := core.LoadCrate(*root)
	if err != nil {
		return err
	}
	result, err := core.Diagnose(files)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		return printDiagnoseJSON(os.Stdout, result)
	default:
		printDiagnoseText(os.Stdout, result)
		return nil
	}
}
