package plan

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	empty := Plan{}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyPlan) {
		t.Fatalf("expected ErrEmptyPlan, got %v", err)
	}

	dup := Plan{Subqueries: []SubQuery{
		{ID: "1", Text: "wind loads"},
		{ID: "1", Text: "snow loads"},
	}}
	if err := dup.Validate(); !errors.Is(err, ErrDuplicateSubquery) {
		t.Fatalf("expected ErrDuplicateSubquery, got %v", err)
	}

	blank := Plan{Subqueries: []SubQuery{{ID: "1", Text: ""}}}
	if err := blank.Validate(); !errors.Is(err, ErrBlankSubquery) {
		t.Fatalf("expected ErrBlankSubquery, got %v", err)
	}

	ok := Plan{Subqueries: []SubQuery{
		{ID: "1", Text: "Section 1607.12.1"},
		{ID: "2", Text: "impact-resistant coverings", Hint: "Wind-borne debris protection requires..."},
	}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid plan, got %v", err)
	}
}

func TestFingerprintNormalization(t *testing.T) {
	base := Fingerprint("Section 1607.12.1")
	cases := []string{
		"section 1607.12.1",
		"  Section   1607.12.1 ",
		"SECTION\t1607.12.1",
	}
	for _, c := range cases {
		if got := Fingerprint(c); got != base {
			t.Errorf("Fingerprint(%q) = %s, want %s", c, got, base)
		}
	}

	if Fingerprint("Section 1607.12.1") != base {
		t.Error("fingerprint not deterministic across calls")
	}
	if Fingerprint("Section 1607.12.2") == base {
		t.Error("distinct texts should not collide")
	}
}
