// Package main is the entry point for the blockedit document server.
package main

import (
	"fmt"
	"io"
	"os"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return serve(args[1:], stderr)
	case "list":
		return list(args[1:], stdout, stderr)
	case "convert":
		return convert(args[1:], stdin, stdout, stderr)
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "blockedit %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	}
	fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "blockedit - block-based rich text documents\n\n")
	fmt.Fprintf(w, "Usage: blockedit <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  serve     Serve documents over HTTP\n")
	fmt.Fprintf(w, "  list      List stored documents\n")
	fmt.Fprintf(w, "  convert   Convert a document between JSON and HTML\n")
	fmt.Fprintf(w, "  version   Show version information\n\n")
	fmt.Fprintf(w, "Run 'blockedit <command> -h' for command options.\n")
}
