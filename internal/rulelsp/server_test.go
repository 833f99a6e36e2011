package rulelsp

import "testing"

func TestDiagnosticsEmptyForCleanSource(t *testing.T) {
	diags := Diagnostics("period: {.}\ngreeting: {Hi|Hello} -> fine\n")
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %d: %+v", len(diags), diags)
	}
}

func TestDiagnosticsReportsBrokenLine(t *testing.T) {
	src := "period: {.}\nthis is not a statement at all\n"
	diags := Diagnostics(src)
	if len(diags) == 0 {
		t.Fatal("expected at least one diagnostic for the malformed second line")
	}
	d := diags[0]
	if d.Range.Start.Line != 1 {
		t.Fatalf("expected diagnostic on line 1 (0-indexed), got %d", d.Range.Start.Line)
	}
	if d.Message == "" {
		t.Fatal("expected a non-empty diagnostic message")
	}
}

func TestOffsetPositionTracksNewlines(t *testing.T) {
	text := "abc\ndef\nghi"
	pos := offsetPosition(text, 5) // 'e' on the second line
	if pos.Line != 1 || pos.Character != 1 {
		t.Fatalf("expected line 1 char 1, got line %d char %d", pos.Line, pos.Character)
	}
}
