package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/model"
)

// SubmitRequest is the upload payload
type SubmitRequest struct {
	Email               string   `json:"email"`
	Resumes             []string `json:"resumes,omitempty"`
	DocumentBytesBase64 string   `json:"documentBytesBase64,omitempty"`
	ContentType         string   `json:"contentType,omitempty"`
	Role                string   `json:"role,omitempty"`
	Name                string   `json:"name,omitempty"`
	CompanyOrSchool     string   `json:"companyOrSchool,omitempty"`
}

// SubmitResponse acknowledges an accepted submission
type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/submit" {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.limiter.Allow() {
		jsonError(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		jsonError(w, "email is required", http.StatusBadRequest)
		return
	}

	encoded := req.DocumentBytesBase64
	if len(req.Resumes) > 0 {
		encoded = req.Resumes[0]
		if len(req.Resumes) > 1 {
			s.logger.Warn("only one resume is supported, ignoring the rest", "count", len(req.Resumes))
		}
	}
	if strings.TrimSpace(encoded) == "" {
		jsonError(w, "a resume document is required", http.StatusBadRequest)
		return
	}

	doc, contentType, err := decodeDocument(encoded)
	if err != nil {
		jsonError(w, "document is not valid base64", http.StatusBadRequest)
		return
	}
	if req.ContentType != "" {
		contentType = req.ContentType
	}

	sub := model.Submission{
		ID:              s.newID(),
		Email:           req.Email,
		Role:            req.Role,
		Name:            req.Name,
		CompanyOrSchool: req.CompanyOrSchool,
		Document:        doc,
		ContentType:     contentType,
	}

	if err := s.dispatch(sub); err != nil {
		s.logger.Warn("submission rejected", "submission_id", sub.ID, "error", err)
		jsonError(w, "server is busy, try again later", http.StatusServiceUnavailable)
		return
	}

	s.logger.Info("submission accepted", "submission_id", sub.ID, "bytes", len(doc))
	writeJSON(w, http.StatusAccepted, SubmitResponse{ID: sub.ID, Status: "accepted"})
}

func (s *Server) dispatch(sub model.Submission) error {
	return s.pool.Submit(func(ctx context.Context) {
		ctx = logging.With(ctx, s.logger)
		ctx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
		s.runner.Run(ctx, sub)
	})
}

// decodeDocument accepts standard or URL-safe base64, padded or not,
// optionally prefixed with a data URL header
func decodeDocument(encoded string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)

	var contentType string
	if strings.HasPrefix(encoded, "data:") {
		header, payload, ok := strings.Cut(encoded, ",")
		if !ok {
			return nil, "", errors.New("malformed data URL")
		}
		contentType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		encoded = payload
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(encoded); err == nil {
			return data, contentType, nil
		}
	}
	return nil, "", errors.New("invalid base64")
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
