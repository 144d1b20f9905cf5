package ioformat

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mauricelam/pyolin/record"
)

func printResult(t *testing.T, format string, result any, cfg PrintConfig) string {
	t.Helper()

	p, err := NewPrinter(format)
	if err != nil {
		t.Fatalf("NewPrinter(%q) failed: %v", format, err)
	}

	var buf bytes.Buffer
	if err := p.Print(&buf, result, cfg); err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	return buf.String()
}

func TestTxtPrinterScalar(t *testing.T) {
	got := printResult(t, "txt", 42, PrintConfig{})
	if got != "42\n" {
		t.Errorf("txt scalar = %q, want 42\\n", got)
	}
}

func TestTxtPrinterRowsWithoutHeader(t *testing.T) {
	got := printResult(t, "txt", [][]string{{"a", "b"}, {"c", "d"}}, PrintConfig{})
	if got != "a b\nc d\n" {
		t.Errorf("txt rows = %q", got)
	}
}

func TestTxtPrinterHeader(t *testing.T) {
	cfg := PrintConfig{Header: record.Header{"x", "y"}}

	got := printResult(t, "txt", [][]string{{"1", "2"}}, cfg)
	if got != "x y\n1 2\n" {
		t.Errorf("txt with header = %q", got)
	}
}

func TestCSVPrinter(t *testing.T) {
	cfg := PrintConfig{Header: record.Header{"a", "b"}}

	got := printResult(t, "csv", [][]string{{"1", "2"}, {"3", "4"}}, cfg)
	if got != "a,b\n1,2\n3,4\n" {
		t.Errorf("csv = %q", got)
	}
}

func TestCSVPrinterQuoting(t *testing.T) {
	got := printResult(t, "csv", [][]string{{"hello, world", "2"}}, PrintConfig{})
	if got != "\"hello, world\",2\n" {
		t.Errorf("csv quoting = %q", got)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	header := record.Header{"name", "count"}
	rows := [][]string{
		{"plain", "1"},
		{"comma, inside", "2"},
		{`quoted "cell"`, "3"},
	}

	out := printResult(t, "csv", rows, PrintConfig{Header: header})

	set, err := mustParser(t, "csv", "", "").Parse([]byte(out))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if strings.Join(set.Header, "|") != "name|count" {
		t.Errorf("header = %v, want %v", set.Header, header)
	}

	if len(set.Records) != len(rows) {
		t.Fatalf("got %d records, want %d", len(set.Records), len(rows))
	}

	for i, rec := range set.Records {
		if strings.Join(rec.Fields, "|") != strings.Join(rows[i], "|") {
			t.Errorf("record %d fields = %v, want %v", i, rec.Fields, rows[i])
		}
	}
}

func TestMarkdownPrinter(t *testing.T) {
	cfg := PrintConfig{Header: record.Header{"a", "b"}}

	got := printResult(t, "markdown", [][]string{{"1", "2"}, {"3", "4"}}, cfg)
	want := "| a | b |\n| - | - |\n| 1 | 2 |\n| 3 | 4 |\n"

	if got != want {
		t.Errorf("markdown = %q, want %q", got, want)
	}
}

func TestMarkdownPrinterSynthesizedHeader(t *testing.T) {
	got := printResult(t, "markdown", []any{[]any{"x", "y"}}, PrintConfig{})

	if !strings.HasPrefix(got, "| 0 | 1 |\n") {
		t.Errorf("markdown without header = %q, want positional labels", got)
	}
}

func TestMarkdownPrinterEmptySequence(t *testing.T) {
	got := printResult(t, "markdown", []any{}, PrintConfig{})
	if got != "" {
		t.Errorf("markdown of empty sequence = %q, want empty", got)
	}
}

func TestJSONPrinterObjects(t *testing.T) {
	cfg := PrintConfig{Header: record.Header{"a", "b"}}

	got := printResult(t, "json", [][]string{{"1", "x"}}, cfg)
	want := "[\n  {\n    \"a\": 1,\n    \"b\": \"x\"\n  }\n]\n"

	if got != want {
		t.Errorf("json objects = %q, want %q", got, want)
	}
}

func TestJSONPrinterMap(t *testing.T) {
	got := printResult(t, "json", map[string]any{"n": "7"}, PrintConfig{})

	if !strings.Contains(got, "\"n\": 7") {
		t.Errorf("json map = %q, want numeric coercion of n", got)
	}
}

func TestJSONLPrinter(t *testing.T) {
	got := printResult(t, "jsonl", []any{map[string]any{"a": 1}, map[string]any{"a": 2}}, PrintConfig{})
	if got != "{\"a\":1}\n{\"a\":2}\n" {
		t.Errorf("jsonl = %q", got)
	}
}

func TestJSONLPrinterRejectsScalar(t *testing.T) {
	p, err := NewPrinter("jsonl")
	if err != nil {
		t.Fatalf("NewPrinter failed: %v", err)
	}

	var buf bytes.Buffer
	if err := p.Print(&buf, 42, PrintConfig{}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("jsonl scalar = %v, want ErrTypeMismatch", err)
	}
}

func TestYAMLPrinter(t *testing.T) {
	got := printResult(t, "yaml", map[string]any{"a": "1"}, PrintConfig{})
	if got != "a: 1\n" {
		t.Errorf("yaml = %q", got)
	}
}

func TestStrPrinter(t *testing.T) {
	got := printResult(t, "str", []any{"a", "b"}, PrintConfig{})
	if got != "[a b]\n" {
		t.Errorf("str = %q", got)
	}
}

func TestBinaryPrinter(t *testing.T) {
	got := printResult(t, "binary", []byte{0x41, 0x42}, PrintConfig{})
	if got != "AB" {
		t.Errorf("binary = %q", got)
	}

	p, err := NewPrinter("binary")
	if err != nil {
		t.Fatalf("NewPrinter failed: %v", err)
	}

	var buf bytes.Buffer
	if err := p.Print(&buf, 42, PrintConfig{}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("binary of int = %v, want ErrTypeMismatch", err)
	}
}

func TestPrintersDropSkip(t *testing.T) {
	for _, format := range []string{"txt", "csv", "markdown", "json", "str"} {
		got := printResult(t, format, record.Skipped, PrintConfig{})
		if got != "" {
			t.Errorf("%s printed %q for the skip sentinel, want nothing", format, got)
		}
	}
}

func TestStreamingPrinterFlushesBeforeFailure(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	stream := record.NewStream(func() (any, bool, error) {
		calls++
		if calls == 1 {
			return []any{"first"}, true, nil
		}

		return nil, false, boom
	})

	p, err := NewPrinter("txt")
	if err != nil {
		t.Fatalf("NewPrinter failed: %v", err)
	}

	var buf bytes.Buffer

	err = p.Print(&buf, stream, PrintConfig{})
	if !errors.Is(err, boom) {
		t.Fatalf("Print error = %v, want boom", err)
	}

	if buf.String() != "first\n" {
		t.Errorf("streaming printer output = %q, want the first row flushed", buf.String())
	}
}

func TestBufferingPrinterEmitsNothingOnFailure(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	stream := record.NewStream(func() (any, bool, error) {
		calls++
		if calls == 1 {
			return []any{"first"}, true, nil
		}

		return nil, false, boom
	})

	p, err := NewPrinter("markdown")
	if err != nil {
		t.Fatalf("NewPrinter failed: %v", err)
	}

	var buf bytes.Buffer

	err = p.Print(&buf, stream, PrintConfig{})
	if !errors.Is(err, boom) {
		t.Fatalf("Print error = %v, want boom", err)
	}

	if buf.String() != "" {
		t.Errorf("buffering printer output = %q, want nothing", buf.String())
	}
}
