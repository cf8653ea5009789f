package model

import "fmt"

// Claim represents a verifiable assertion extracted from a resume
type Claim struct {
	Text        string `json:"claim_text" firestore:"claim_text"`     // Statement to be judged ("Did X do Y?")
	SearchQuery string `json:"search_query" firestore:"search_query"` // Keyword query used only for retrieval
}

// Generation is the output of the claim generator for one resume
type Generation struct {
	FullName string  `json:"full_name"`
	School   string  `json:"school"`
	Claims   []Claim `json:"claims"`
}

// Verdict is the closed outcome of judging a claim against its evidence
type Verdict string

const (
	VerdictVerified Verdict = "Verified" // Evidence offers plausible support
	VerdictUnsure   Verdict = "Unsure"   // Evidence is silent on the claim
	VerdictBullshit Verdict = "Bullshit" // Evidence actively contradicts the claim
)

// Verdicts lists every valid verdict in display order
func Verdicts() []Verdict {
	return []Verdict{VerdictVerified, VerdictUnsure, VerdictBullshit}
}

// ParseVerdict accepts only the exact enum values; anything else is an error
func ParseVerdict(s string) (Verdict, error) {
	switch v := Verdict(s); v {
	case VerdictVerified, VerdictUnsure, VerdictBullshit:
		return v, nil
	default:
		return "", fmt.Errorf("invalid verdict %q (allowed: Verified, Unsure, Bullshit)", s)
	}
}

// Valid reports whether v is one of the three verdicts
func (v Verdict) Valid() bool {
	_, err := ParseVerdict(string(v))
	return err == nil
}

// TruncateClaims keeps at most max claims, preserving prefix order.
// A non-positive max keeps nothing.
func TruncateClaims(claims []Claim, max int) []Claim {
	if max <= 0 {
		return []Claim{}
	}
	if len(claims) <= max {
		return claims
	}
	return claims[:max]
}
