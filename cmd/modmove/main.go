package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "plan":
		err = runPlan(os.Args[2:])
	case "apply":
		err = runApply(os.Args[2:])
	case "refs":
		err = runRefs(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "diagnose":
		err = runDiagnose(os.Args[2:])
	case "simplify":
		err = runSimplify(os.Args[2:])
	case "repair":
		err = runRepair(os.Args[2:])
	case "--version":
		printVersion(os.Stdout)
		return
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	v := version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	fmt.Fprintf(w, "modmove version %s\n", v)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: modmove <command> [options]

Commands:
  plan       show the edits a move would make, without touching files
  apply      perform a move and rewrite all references
  refs       list references to a declaration
  stats      show crate index statistics
  diagnose   report unresolved references and duplicate names
  simplify   respell references to their shortest valid form
  repair     fix broken references with a unique suffix match

Run 'modmove <command> --help' for command options.
`)
}
