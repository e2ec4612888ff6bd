package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ryotapoi/modmove/internal/core"
)

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	root := fs.String("root", ".", "crate root directory")
	format := fs.String("format", "text", "output format (json or text)")
	dest := fs.String("dest", "", "destination module path (e.g. crate::mod2)")
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

	plan, err := core.PlanMove(prog, ix, core.MoveOptions{Items: items, Dest: *dest}, opts)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		return printPlanJSON(os.Stdout, prog, plan)
	default:
		printPlanText(os.Stdout, prog, plan)
		return nil
	}
}
