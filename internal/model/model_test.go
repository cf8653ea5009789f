package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		in      string
		want    Verdict
		wantErr bool
	}{
		{"Verified", VerdictVerified, false},
		{"Unsure", VerdictUnsure, false},
		{"Bullshit", VerdictBullshit, false},
		{"verified", "", true},
		{"Verified ", "", true},
		{"True", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVerdict(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVerdict(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVerdict(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateClaims(t *testing.T) {
	claims := make([]Claim, 7)
	for i := range claims {
		claims[i] = Claim{Text: fmt.Sprintf("claim %d", i)}
	}

	got := TruncateClaims(claims, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 claims, got %d", len(got))
	}
	for i := range got {
		if got[i] != claims[i] {
			t.Errorf("claim %d: expected %q, got %q", i, claims[i].Text, got[i].Text)
		}
	}

	if len(TruncateClaims(claims, 20)) != 7 {
		t.Error("expected all claims when under the cap")
	}
	if len(TruncateClaims(claims, 0)) != 0 {
		t.Error("expected no claims for zero cap")
	}
}

func TestCauseOf(t *testing.T) {
	base := errors.New("429 too many requests")

	if CauseOf(base) != CauseGeneric {
		t.Error("untagged error should be generic")
	}

	wrapped := &VerificationError{Index: 2, Err: &RetrievalError{Query: "q", Err: MarkCapacity(base)}}
	if CauseOf(wrapped) != CauseCapacity {
		t.Error("capacity tag should survive wrapping")
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected errors.Is to reach the original error")
	}
	if MarkCapacity(nil) != nil || MarkTransient(nil) != nil {
		t.Error("marking nil should stay nil")
	}
}

func TestIsTransient(t *testing.T) {
	err := &JudgmentError{Claim: "c", Err: MarkTransient(errors.New("503"))}
	if !IsTransient(err) {
		t.Error("expected transient through JudgmentError")
	}
	if IsTransient(errors.New("bad verdict")) {
		t.Error("plain error should not be transient")
	}
}

func TestVerificationError_Message(t *testing.T) {
	err := &VerificationError{Index: 2, Err: errors.New("boom")}
	if err.Error() != "verify claim 3: boom" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	cancelled := &VerificationError{Index: -1, Err: errors.New("context canceled")}
	if cancelled.Error() != "verify claims: context canceled" {
		t.Errorf("unexpected message: %s", cancelled.Error())
	}
}

func TestBundle_VerdictCounts(t *testing.T) {
	b := &SubmissionResultBundle{Records: []VerificationRecord{
		{Verdict: VerdictVerified},
		{Verdict: VerdictVerified},
		{Verdict: VerdictBullshit},
	}}
	counts := b.VerdictCounts()
	if counts[VerdictVerified] != 2 || counts[VerdictBullshit] != 1 || counts[VerdictUnsure] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
