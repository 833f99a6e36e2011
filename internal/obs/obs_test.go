package obs

import "testing"

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	l := New("not-a-level")
	if l == nil {
		t.Fatal("expected a non-nil Logger")
	}
	l.Info("hello")
}

func TestWithRuleAndSequenceDoNotPanic(t *testing.T) {
	l := Nop().WithRule("period").WithSequence("doc-1")
	l.Scan("period", "doc-1", 1.5, 3)
}

func TestSugarReturnsUsableLogger(t *testing.T) {
	s := Nop().Sugar()
	s.Infof("scanned %d matches", 3)
}
