package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/scribe/dsl"
)

const sampleDSL = `
doc Paragraph v1 {
  meta {
    title: "Greeting"
    keywords: [
      "demo"
      "internal"
    ]
  }

  paragraph {
    align: center
    line-height: 1.5x
    first-line: -8pt
    tab-stop: 36pt
    direction: rtl
    text: "Hello\tworld"
    span 0 5 {
      bold: true
      color: #FF0000
      font: "Go"
      size: 14pt
    }
    span 6 11 { ref: user.name; underline: true }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Paragraph" {
		t.Fatalf("expected document name Paragraph, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}

	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}

	meta := doc.Sections[0].Meta
	if meta == nil {
		t.Fatalf("meta section missing")
	}
	if len(meta.Block.Statements) < 2 {
		t.Fatalf("meta statements missing: %+v", meta.Block.Statements)
	}
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	if got := string(*title.Value.String); got != "Greeting" {
		t.Fatalf("expected title Greeting, got %s", got)
	}

	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.Array == nil {
		t.Fatalf("expected keywords array assignment")
	}
	if len(keywords.Value.Array.Values) != 2 {
		t.Fatalf("expected 2 keywords, got %d", len(keywords.Value.Array.Values))
	}

	para := doc.Sections[1].Paragraph
	if para == nil || doc.Sections[1].Kind() != "paragraph" {
		t.Fatalf("paragraph section missing")
	}
	stmts := para.Block.Statements
	if len(stmts) != 8 {
		t.Fatalf("expected 8 paragraph statements, got %d", len(stmts))
	}

	align := stmts[0].Assignment
	if align == nil || align.Value.Expr == nil || align.Value.Text() != "center" {
		t.Fatalf("align should capture an identifier expression, got %+v", stmts[0])
	}
	indent := stmts[2].Assignment
	if indent == nil || indent.Value.Number == nil || *indent.Value.Number != "-8pt" {
		t.Fatalf("negative lengths should lex as numbers, got %+v", stmts[2])
	}
	text := stmts[5].Assignment
	if text == nil || text.Value.Text() != "Hello\tworld" {
		t.Fatalf("text should be unquoted, got %+v", stmts[5])
	}

	span := stmts[6].Command
	if span == nil || span.Name != "span" {
		t.Fatalf("expected span command, got %+v", stmts[6])
	}
	if len(span.Args) != 2 || span.Args[0].Value != "0" || span.Args[1].Value != "5" {
		t.Fatalf("unexpected span args: %+v", span.Args)
	}
	if span.Block == nil || len(span.Block.Statements) != 4 {
		t.Fatalf("span body missing assignments")
	}
	color := span.Block.Statements[1].Assignment
	if color == nil || color.Value.Color == nil || *color.Value.Color != "#FF0000" {
		t.Fatalf("expected color literal, got %+v", span.Block.Statements[1])
	}

	inline := stmts[7].Command
	if inline == nil || inline.Block == nil || len(inline.Block.Statements) != 2 {
		t.Fatalf("semicolon separated span body not parsed: %+v", stmts[7])
	}
	ref := inline.Block.Statements[0].Assignment
	if ref == nil || ref.Value.Expr == nil {
		t.Fatalf("ref assignment should capture expression, got %+v", inline.Block.Statements[0])
	}
	if got := tokensToString(ref.Value.Expr.Parts); got != "user . name" {
		t.Fatalf("unexpected expression tokens: %s", got)
	}
	if got := ref.Value.Text(); got != "user.name" {
		t.Fatalf("unexpected expression text: %s", got)
	}
}

func TestParseRejectsUnknownSection(t *testing.T) {
	_, err := dsl.ParseString(`doc Paragraph v1 { page A4 { } }`)
	if err == nil {
		t.Fatalf("expected an error for an unknown section")
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}
