package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mauricelam/pyolin/frame"
	"github.com/mauricelam/pyolin/lang"
	"github.com/mauricelam/pyolin/record"
)

func newFrame(rows [][]string, header record.Header) (any, error) {
	return frame.New(rows, header)
}

// runProgram executes source against input and returns the printed
// output.
func runProgram(t *testing.T, source, input string, cfg RunConfig) (string, error) {
	t.Helper()

	prog, err := lang.Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", source, err)
	}

	var out bytes.Buffer

	cfg.Input = strings.NewReader(input)
	cfg.Output = &out
	if cfg.Frames == nil {
		cfg.Frames = newFrame
	}

	eng := New(cfg)
	err = eng.Run(context.Background(), prog)

	return out.String(), err
}

func TestTableScopeCount(t *testing.T) {
	got, err := runProgram(t, "len(records)", "a,b\n1,2\n3,4\n", RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "2\n" {
		t.Errorf("output = %q, want 2\\n", got)
	}
}

func TestRecordScopeFilter(t *testing.T) {
	got, err := runProgram(t, `record if record[0] == "2"`, "1\n2\n3\n", RunConfig{Printer: "csv"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "2\n" {
		t.Errorf("output = %q, want the matching record only", got)
	}
}

func TestRecordScopeProjection(t *testing.T) {
	got, err := runProgram(t, "line", "x y\nz\n", RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "x y\nz\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEmptyInputRecordScope(t *testing.T) {
	got, err := runProgram(t, "record[0]", "", RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "" {
		t.Errorf("output = %q, want empty", got)
	}
}

func TestEndToEndMarkdown(t *testing.T) {
	got, err := runProgram(t, "records", "a,b\n1,2\n3,4\n", RunConfig{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "| a | b |\n| - | - |\n| 1 | 2 |\n| 3 | 4 |\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestScopeConflict(t *testing.T) {
	_, err := runProgram(t, "len(record) + len(records)", "1\n", RunConfig{})
	if !errors.Is(err, ErrScopeConflict) {
		t.Errorf("Run = %v, want ErrScopeConflict", err)
	}
}

// errReader fails the test if anything reads from it.
type errReader struct{ t *testing.T }

func (r errReader) Read([]byte) (int, error) {
	r.t.Error("input was read before the capability check")

	return 0, io.EOF
}

func TestBinaryCapabilityBeforeIO(t *testing.T) {
	prog, err := lang.Parse("len(records)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	eng := New(RunConfig{
		Input:   errReader{t},
		Output:  io.Discard,
		Parser:  "binary",
		Printer: "txt",
	})

	if err := eng.Run(context.Background(), prog); !errors.Is(err, ErrCapability) {
		t.Errorf("Run = %v, want ErrCapability", err)
	}

	if eng.State() != StateFailed {
		t.Errorf("state = %v, want failed", eng.State())
	}
}

func TestBinaryContents(t *testing.T) {
	got, err := runProgram(t, "contents", "\x01\x02", RunConfig{Parser: "binary", Printer: "binary"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "\x01\x02" {
		t.Errorf("output = %q, want raw bytes", got)
	}
}

func TestLateConfiguration(t *testing.T) {
	_, err := runProgram(t, `n = len(records); parser = "csv"; n`, "1 2\n", RunConfig{})
	if !errors.Is(err, ErrLateConfiguration) {
		t.Errorf("Run = %v, want ErrLateConfiguration", err)
	}
}

func TestEarlyParserAssignment(t *testing.T) {
	got, err := runProgram(t, `parser = "csv"; len(records[0])`, "a;b,c\n", RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The csv parser splits on commas, so the first record has 2 fields.
	if got != "2\n" {
		t.Errorf("output = %q, want 2\\n", got)
	}
}

func TestPrinterAssignment(t *testing.T) {
	got, err := runProgram(t, `printer = "json"; len(lines)`, "a\nb\n", RunConfig{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "2\n" {
		t.Errorf("output = %q, want 2\\n", got)
	}
}

func TestUnknownPrinterAssignment(t *testing.T) {
	_, err := runProgram(t, `printer = "jsn"; 1`, "", RunConfig{})
	if err == nil {
		t.Fatal("Run succeeded with unknown printer")
	}
}

func TestHeaderAssignment(t *testing.T) {
	got, err := runProgram(t, `header = ["x", "y"]; records`, "1,2\n3,4\n", RunConfig{Printer: "csv"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "x,y\n1,2\n3,4\n" {
		t.Errorf("output = %q", got)
	}
}

func TestConfiguredHeader(t *testing.T) {
	cfg := RunConfig{Parser: "csv", Printer: "csv", Header: record.Header{"x", "y"}}

	got, err := runProgram(t, "records", "1,2\n3,4\n", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "x,y\n1,2\n3,4\n" {
		t.Errorf("output = %q, want configured header row first", got)
	}
}

func TestConfiguredHeaderBinding(t *testing.T) {
	cfg := RunConfig{Parser: "csv", Printer: "txt", Header: record.Header{"x", "y"}}

	got, err := runProgram(t, "header[1]", "1,2\n", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "y\n" {
		t.Errorf("output = %q, want the configured label", got)
	}
}

func TestSeparatorsReachPrinter(t *testing.T) {
	cfg := RunConfig{RecordSep: ";", FieldSep: ",", Printer: "txt"}

	got, err := runProgram(t, "record", "a,b;c,d;", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "a,b;c,d;" {
		t.Errorf("output = %q, want the configured separators", got)
	}
}

func TestFilenameBinding(t *testing.T) {
	got, err := runProgram(t, `filename ?? "piped"`, "", RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "piped\n" {
		t.Errorf("output = %q, want piped", got)
	}

	got, err = runProgram(t, `filename`, "", RunConfig{Printer: "txt", Filename: "in.csv"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "in.csv\n" {
		t.Errorf("output = %q, want in.csv", got)
	}
}

func TestJSONDocSingle(t *testing.T) {
	got, err := runProgram(t, "jsonobj.name", `{"name": "x", "n": 3}`, RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "x\n" {
		t.Errorf("output = %q, want x", got)
	}
}

func TestJSONDocSequence(t *testing.T) {
	got, err := runProgram(t, "jsonobj.n", `{"n": 1}`+"\n"+`{"n": 2}`, RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "1\n2\n" {
		t.Errorf("output = %q, want one line per document", got)
	}
}

func TestJSONObjsBinding(t *testing.T) {
	got, err := runProgram(t, "len(jsonobjs)", `{"a": 1}{"a": 2}`, RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "2\n" {
		t.Errorf("output = %q, want 2\\n", got)
	}
}

func TestFrameBinding(t *testing.T) {
	got, err := runProgram(t, "df.NumRows()", "a,b\n1,2\n3,4\n", RunConfig{Printer: "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "2\n" {
		t.Errorf("output = %q, want 2\\n", got)
	}
}

func TestFrameMissingDependency(t *testing.T) {
	prog, err := lang.Parse("df")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	eng := New(RunConfig{
		Input:  strings.NewReader("1,2\n"),
		Output: io.Discard,
	})

	if err := eng.Run(context.Background(), prog); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("Run = %v, want ErrMissingDependency", err)
	}
}

func TestUserErrorFails(t *testing.T) {
	_, err := runProgram(t, "record[9]", "a b\n", RunConfig{})
	if !errors.Is(err, lang.ErrUserEvaluation) {
		t.Errorf("Run = %v, want ErrUserEvaluation", err)
	}
}

func TestStateDoneAfterRun(t *testing.T) {
	prog, err := lang.Parse("1 + 1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	eng := New(RunConfig{
		Input:   strings.NewReader(""),
		Output:  io.Discard,
		Printer: "txt",
	})

	if eng.State() != StateAnalyzing {
		t.Errorf("initial state = %v, want analyzing", eng.State())
	}

	if err := eng.Run(context.Background(), prog); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if eng.State() != StateDone {
		t.Errorf("final state = %v, want done", eng.State())
	}
}

func TestContextCancellation(t *testing.T) {
	prog, err := lang.Parse("record[0]")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(RunConfig{
		Input:  strings.NewReader("1\n2\n"),
		Output: io.Discard,
	})

	if err := eng.Run(ctx, prog); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}
