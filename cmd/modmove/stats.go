package main

import (
	"flag"
	"os"

	"github.com/ryotapoi/modmove/internal/core"
)

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	root := fs.String("root", ".", "crate root directory")
	format := fs.String("format", "text", "output format (json or text)")
	fields := fs.String("fields", "", "comma-separated fields to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validateFormat(*format); err != nil {
		return err
	}

	_, ix, _, err := loadIndex(*root)
	if err != nil {
		return err
	}
	defer ix.Close()

	result, err := ix.Stats(core.StatsOptions{Fields: parseFields(*fields)})
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		return printStatsJSON(os.Stdout, result, parseFields(*fields))
	default:
		printStatsText(os.Stdout, result, parseFields(*fields))
		return nil
	}
}
