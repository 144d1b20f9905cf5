package ioformat

import (
	"errors"
	"testing"
)

func mustParser(t *testing.T, format, recordSep, fieldSep string) Parser {
	t.Helper()

	p, err := NewParser(format, recordSep, fieldSep)
	if err != nil {
		t.Fatalf("NewParser(%q) failed: %v", format, err)
	}

	return p
}

func TestTxtParser(t *testing.T) {
	p := mustParser(t, "txt", "", "")

	set, err := p.Parse([]byte("aa bb\tcc\ndd ee ff\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(set.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(set.Records))
	}

	first := set.Records[0]
	if len(first.Fields) != 3 || first.Fields[1] != "bb" {
		t.Errorf("first record fields = %v", first.Fields)
	}

	if first.Source != "aa bb\tcc" {
		t.Errorf("first record source = %q", first.Source)
	}

	if !first.First() {
		t.Error("first record does not report First")
	}
}

func TestTxtParserCustomSeparators(t *testing.T) {
	p := mustParser(t, "txt", ";", ":")

	set, err := p.Parse([]byte("a:b;c:d;"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(set.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(set.Records))
	}

	if set.Records[1].Fields[1] != "d" {
		t.Errorf("second record fields = %v", set.Records[1].Fields)
	}
}

func TestCSVParserHeaderDetection(t *testing.T) {
	p := mustParser(t, "csv", "", "")

	set, err := p.Parse([]byte("name,count\nalice,3\nbob,14\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(set.Header) != 2 || set.Header[0] != "name" {
		t.Errorf("header = %v, want [name count]", set.Header)
	}

	if len(set.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(set.Records))
	}

	if set.Records[0].Fields[0] != "alice" {
		t.Errorf("first record = %v", set.Records[0].Fields)
	}
}

func TestCSVParserQuotedField(t *testing.T) {
	p := mustParser(t, "csv", "", "")

	set, err := p.Parse([]byte(`"hello, world",2` + "\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if set.Records[0].Fields[0] != "hello, world" {
		t.Errorf("quoted field = %q", set.Records[0].Fields[0])
	}
}

func TestCSVParserCRLF(t *testing.T) {
	p := mustParser(t, "csv", "", "")

	set, err := p.Parse([]byte("1,2\r\n3,4\r\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if set.Records[0].Fields[1] != "2" {
		t.Errorf("CRLF field = %q, want carriage return stripped", set.Records[0].Fields[1])
	}
}

func TestTSVParser(t *testing.T) {
	p := mustParser(t, "tsv", "", "")

	set, err := p.Parse([]byte("1\t2\n3\t4\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if set.Format != "tsv" {
		t.Errorf("format = %q, want tsv", set.Format)
	}

	if len(set.Records) != 2 || set.Records[1].Fields[0] != "3" {
		t.Errorf("records = %v", set.Records)
	}
}

func TestJSONParser(t *testing.T) {
	p := mustParser(t, "json", "", "")

	set, err := p.Parse([]byte(`[{"b": 1, "a": "x"}, {"b": 2, "a": "y"}]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Keys keep document order, not sorted order.
	if len(set.Header) != 2 || set.Header[0] != "b" || set.Header[1] != "a" {
		t.Fatalf("header = %v, want [b a]", set.Header)
	}

	if set.Records[0].Fields[0] != "1" || set.Records[0].Fields[1] != "x" {
		t.Errorf("first record = %v", set.Records[0].Fields)
	}

	if len(set.Records) != 2 {
		t.Errorf("got %d records, want 2", len(set.Records))
	}
}

func TestJSONParserRejectsScalar(t *testing.T) {
	p := mustParser(t, "json", "", "")

	if _, err := p.Parse([]byte(`42`)); !errors.Is(err, ErrUnexpectedData) {
		t.Errorf("Parse of scalar json = %v, want ErrUnexpectedData", err)
	}
}

func TestBinaryParser(t *testing.T) {
	p := mustParser(t, "binary", "", "")

	set, err := p.Parse([]byte{0x00, 0x01})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !set.Binary {
		t.Error("binary parser did not mark the set binary")
	}

	if len(set.Records) != 0 {
		t.Errorf("binary set has %d records, want 0", len(set.Records))
	}
}

func TestNewParserUnknown(t *testing.T) {
	if _, err := NewParser("cvs", "", ""); !errors.Is(err, ErrUnknownParser) {
		t.Errorf("NewParser(cvs) = %v, want ErrUnknownParser", err)
	}
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines([]byte("a\nb\nc\n"), "")
	if len(lines) != 3 || lines[2] != "c" {
		t.Errorf("SplitLines = %v, want [a b c]", lines)
	}

	lines = SplitLines([]byte(""), "")
	if len(lines) != 0 {
		t.Errorf("SplitLines of empty input = %v, want none", lines)
	}
}
