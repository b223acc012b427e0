package services

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names one entry of the failure taxonomy for logs and the run ledger.
type Kind string

const (
	KindNone                Kind = ""
	KindResolutionDegraded  Kind = "resolution_degraded"
	KindPrimaryNotFound     Kind = "locator_primary_not_found"
	KindAlternateMismatch   Kind = "locator_alternate_mismatch"
	KindAlternateMalformed  Kind = "locator_alternate_malformed"
	KindAlternateUnresolved Kind = "locator_alternate_unresolved"
	KindTransform           Kind = "transform_failed"
	KindMappingIncomplete   Kind = "mapping_incomplete"
	KindDuplicateIdentifier Kind = "duplicate_identifier"
	KindUploadPrecondition  Kind = "upload_precondition"
	KindUploadTransport     Kind = "upload_transport_failure"
	KindUploadRejected      Kind = "upload_rejected"
	KindInvalidInput        Kind = "invalid_input"
	KindConfiguration       Kind = "configuration"
	KindUnknown             Kind = "unknown"
)

var (
	ErrResolutionDegraded  = errors.New("resolution degraded")
	ErrPrimaryNotFound     = errors.New("primary resource not found")
	ErrAlternateMismatch   = errors.New("alternate descriptor mismatch")
	ErrAlternateMalformed  = errors.New("alternate descriptor malformed")
	ErrAlternateUnresolved = errors.New("alternate resource unresolved")
	ErrTransform           = errors.New("media transform failed")
	ErrMappingIncomplete   = errors.New("mapping incomplete")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrUploadPrecondition  = errors.New("upload precondition failed")
	ErrUploadTransport     = errors.New("upload transport failure")
	ErrUploadRejected      = errors.New("upload rejected")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConfiguration       = errors.New("configuration error")
)

var markerKinds = []struct {
	marker error
	kind   Kind
}{
	{ErrPrimaryNotFound, KindPrimaryNotFound},
	{ErrAlternateMismatch, KindAlternateMismatch},
	{ErrAlternateMalformed, KindAlternateMalformed},
	{ErrAlternateUnresolved, KindAlternateUnresolved},
	{ErrTransform, KindTransform},
	{ErrMappingIncomplete, KindMappingIncomplete},
	{ErrDuplicateIdentifier, KindDuplicateIdentifier},
	{ErrUploadPrecondition, KindUploadPrecondition},
	{ErrUploadTransport, KindUploadTransport},
	{ErrUploadRejected, KindUploadRejected},
	{ErrInvalidInput, KindInvalidInput},
	{ErrConfiguration, KindConfiguration},
	{ErrResolutionDegraded, KindResolutionDegraded},
}

var hints = map[Kind]string{
	KindResolutionDegraded:  "check the precedence columns in the export",
	KindPrimaryNotFound:     "check the asset id and that the primary file exists in the DAM",
	KindAlternateMismatch:   "inspect the asset's alternative files in the DAM",
	KindAlternateMalformed:  "inspect the asset's alternative files in the DAM",
	KindAlternateUnresolved: "inspect the asset's alternative files in the DAM",
	KindTransform:           "run ffmpeg by hand on the primary file",
	KindMappingIncomplete:   "fill the identifier or filename column",
	KindDuplicateIdentifier: "give each row a unique identifier",
	KindUploadPrecondition:  "confirm the DAM filestore is mounted on this host",
	KindUploadRejected:      "check archive credentials and identifier availability",
	KindUploadTransport:     "check network access to the archive and re-run the retry artifact",
	KindInvalidInput:        "check the input path and --media value",
	KindConfiguration:       "run archivist config validate",
}

// Hint returns the operator's next step for kind.
func Hint(kind Kind) string {
	if hint, ok := hints[kind]; ok {
		return hint
	}
	return "check logs for details"
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrUploadTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf classifies err against the taxonomy markers.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, entry := range markerKinds {
		if errors.Is(err, entry.marker) {
			return entry.kind
		}
	}
	return KindUnknown
}

// IsFatal reports whether err must abort the whole batch rather than fail a
// single record.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
