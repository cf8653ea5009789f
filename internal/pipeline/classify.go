package pipeline

import (
	"errors"
	"strings"

	"github.com/ppiankov/skilldiff/internal/model"
)

var capacityMarkers = []string{"quota", "rate limit", "credit", "capacity", "insufficient"}

// Classify decides which failure email a run error gets.
// Errors tagged at their origin win. Untagged errors fall back to matching
// the innermost cause only, since wrapper text carries claim text, queries and ids.
func Classify(err error) model.Cause {
	if err == nil {
		return model.CauseGeneric
	}
	if model.CauseOf(err) == model.CauseCapacity {
		return model.CauseCapacity
	}

	msg := strings.ToLower(rootCause(err).Error())
	for _, marker := range capacityMarkers {
		if strings.Contains(msg, marker) {
			return model.CauseCapacity
		}
	}
	return model.CauseGeneric
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
