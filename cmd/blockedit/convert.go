package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/editor"
)

func convert(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "Input format: json or html (default from file extension)")
	to := fs.String("to", "", "Output format: json or html (default: the other one)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: blockedit convert [options] [file]\n\n")
		fmt.Fprintf(stderr, "Reads standard input when no file is given.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	in := stdin
	if name := fs.Arg(0); name != "" {
		f, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
		if *from == "" {
			*from = strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		}
	}
	if *from == "htm" {
		*from = "html"
	}
	if *to == "" {
		*to = "html"
		if *from == "html" {
			*to = "json"
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	out, err := convertDocument(data, *from, *to)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(out)
	return 0
}

// convertDocument converts between the document JSON and HTML.
func convertDocument(data []byte, from, to string) ([]byte, error) {
	var doc document.Document
	switch from {
	case "json", "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
	case "html":
		ed := editor.New()
		ed.SetContentHTML(string(data))
		doc = ed.GetContent()
	default:
		return nil, fmt.Errorf("unknown input format %q", from)
	}

	switch to {
	case "html":
		return []byte(editor.ExportHTML(doc.Blocks)), nil
	case "json":
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding document: %w", err)
		}
		return append(out, '\n'), nil
	}
	return nil, fmt.Errorf("unknown output format %q", to)
}
