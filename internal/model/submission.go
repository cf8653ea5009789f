package model

import "time"

// Submission is one resume-verification request.
// It is created once at ingestion and passed by value afterwards.
type Submission struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	RawText         string `json:"raw_text"`
	Role            string `json:"role,omitempty"`
	Name            string `json:"name,omitempty"`
	CompanyOrSchool string `json:"company_or_school,omitempty"`

	Document    []byte `json:"-"` // Original uploaded bytes, stored as the raw blob
	ContentType string `json:"content_type,omitempty"`
}

// Analytics returns the analytics row for the submission
func (s Submission) Analytics(now time.Time) AnalyticsRecord {
	return AnalyticsRecord{
		ID:              s.ID,
		Email:           s.Email,
		Role:            s.Role,
		Name:            s.Name,
		CompanyOrSchool: s.CompanyOrSchool,
		CreatedAt:       now,
	}
}

// VerificationRecord is the persisted unit for one claim
type VerificationRecord struct {
	Claim    Claim    `json:"claim" firestore:"claim"`
	Evidence Evidence `json:"evidence" firestore:"evidence"`
	Verdict  Verdict  `json:"verdict" firestore:"verdict"`
}

// SubmissionResultBundle is written once per successful run
type SubmissionResultBundle struct {
	ID        string               `json:"id" firestore:"id"`
	Email     string               `json:"email" firestore:"email"`
	RawText   string               `json:"raw_text" firestore:"raw_text"`
	FullName  string               `json:"full_name,omitempty" firestore:"full_name"`
	School    string               `json:"school,omitempty" firestore:"school"`
	Records   []VerificationRecord `json:"records" firestore:"records"`
	CreatedAt time.Time            `json:"created_at" firestore:"created_at"`
}

// VerdictCounts tallies records per verdict
func (b *SubmissionResultBundle) VerdictCounts() map[Verdict]int {
	counts := make(map[Verdict]int, 3)
	for _, r := range b.Records {
		counts[r.Verdict]++
	}
	return counts
}

// AnalyticsRecord is a lightweight, best-effort row written early in a run
type AnalyticsRecord struct {
	ID              string    `json:"id" firestore:"id"`
	Email           string    `json:"email" firestore:"email"`
	Role            string    `json:"role,omitempty" firestore:"role"`
	Name            string    `json:"name,omitempty" firestore:"name"`
	CompanyOrSchool string    `json:"company_or_school,omitempty" firestore:"company_or_school"`
	CreatedAt       time.Time `json:"created_at" firestore:"created_at"`
}
