package apperr

import "errors"

// Error taxonomy shared across services:
// - validation and not-found errors surface to the caller with no partial mutation;
// - external-service degradation is absorbed with a documented fallback wherever one
//   exists (ATS scoring, roadmap refinement) and only propagates where it does not
//   (text extraction that yields no text at all).
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidStatus   = errors.New("invalid step status")
	ErrExtractionEmpty = errors.New("no text could be extracted")
)
