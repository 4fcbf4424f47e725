package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/blockedit/internal/document"
)

func TestConvertHTMLToJSON(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"convert", "-from", "html"}, strings.NewReader("<h1>Title</h1><p>body</p>"), &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut.String())
	}

	var doc document.Document
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("output is not a document: %v", err)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("got %d blocks, expected 2", len(doc.Blocks))
	}
	if doc.Blocks[0].Type != document.Heading1 || doc.Blocks[1].Text() != "body" {
		t.Errorf("unexpected blocks %+v", doc.Blocks)
	}
}

func TestConvertJSONToHTML(t *testing.T) {
	doc := document.Document{Blocks: []document.Block{
		document.NewTextBlock(document.Quote, "q"),
		document.NewTextBlock(document.Bullet, "a"),
	}}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	out, err := convertDocument(data, "json", "html")
	if err != nil {
		t.Fatal(err)
	}
	want := "<blockquote>q</blockquote>\n<ul><li>a</li></ul>\n"
	if string(out) != want {
		t.Errorf("output = %q, expected %q", out, want)
	}
}

func TestConvertErrors(t *testing.T) {
	if _, err := convertDocument([]byte("{"), "json", "html"); err == nil {
		t.Error("expected decode error")
	}
	if _, err := convertDocument(nil, "rtf", "html"); err == nil {
		t.Error("expected unknown input format error")
	}
	if _, err := convertDocument([]byte("{}"), "json", "pdf"); err == nil {
		t.Error("expected unknown output format error")
	}
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, nil, &out, &errOut); code != 2 {
		t.Errorf("no arguments: exit code %d, expected 2", code)
	}
	if code := run([]string{"frobnicate"}, nil, &out, &errOut); code != 2 {
		t.Errorf("unknown command: exit code %d, expected 2", code)
	}
	out.Reset()
	if code := run([]string{"version"}, nil, &out, &errOut); code != 0 || !strings.HasPrefix(out.String(), "blockedit dev") {
		t.Errorf("version: exit code %d, output %q", code, out.String())
	}
}
