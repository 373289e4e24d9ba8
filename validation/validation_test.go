package validation

import "testing"

func TestViolationsSentence(t *testing.T) {
	v := make(Violations)
	if v.Sentence() != "" {
		t.Errorf("empty violations should produce empty sentence")
	}

	Required("Invoice number", "  ", v)
	PositiveCents("Total amount", 0, v)
	got := v.Sentence()
	want := "Invoice number can't be blank, Total amount must be positive."
	if got != want {
		t.Errorf("Sentence() = %q, want %q", got, want)
	}
}

func TestValidators(t *testing.T) {
	v := make(Violations)
	Required("name", "ok", v)
	PositiveFloat("qty", 1.5, v)
	PositiveCents("rate", 100, v)
	NonNegativeCents("amount", 0, v)
	RequiredID("category", 3, v)
	MaxLen("notes", "short", 100, v)
	if !v.Empty() {
		t.Errorf("valid inputs produced violations: %v", v)
	}

	NonNegativeCents("amount", -1, v)
	RequiredID("category", 0, v)
	MaxLen("notes", "abcdef", 3, v)
	if len(v) != 3 {
		t.Errorf("expected 3 violations, got %v", v)
	}
}
