package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown metadata function or adapter type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Event Errors.

	// ErrMalformedInput indicates the storage event cannot be turned into a node.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMalformedTimestamp indicates timeCreated or updated is not RFC3339.
	ErrMalformedTimestamp = fmt.Errorf("%w: malformed timestamp", ErrMalformedInput)

	// ErrMissingField indicates a required event field is absent.
	ErrMissingField = fmt.Errorf("%w: missing required field", ErrMalformedInput)

	// Enrichment Errors.

	// ErrPatternNotFound indicates an extraction pattern did not match.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrIndexOutOfRange indicates a name segment does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrTypeConversion indicates a value could not be converted to the required type.
	ErrTypeConversion = errors.New("type conversion failed")

	// ErrNestedProperty indicates a property value is not a scalar.
	ErrNestedProperty = errors.New("nested property value")

	// ErrInvalidPropertyKey indicates a property key cannot be used as a query parameter.
	ErrInvalidPropertyKey = errors.New("invalid property key")

	// Classification Errors.

	// ErrNoLabelMatched indicates no leaf label was assigned to the object.
	ErrNoLabelMatched = errors.New("no label matched")

	// ErrAmbiguousLabel indicates more than one leaf label remained after resolution.
	ErrAmbiguousLabel = errors.New("ambiguous label")

	// ErrUnknownLabel indicates a label is not present in the taxonomy.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrInvalidTaxonomy indicates the taxonomy tree is malformed.
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")

	// Job Launcher Errors.

	// ErrNotJobRequest indicates the query response does not carry exactly one JobRequest node.
	ErrNotJobRequest = errors.New("not a job request")

	// ErrUnknownTask indicates no task configuration exists for a job request.
	ErrUnknownTask = errors.New("unknown task")

	// ErrUnresolvedVariable indicates a task configuration placeholder has no value.
	ErrUnresolvedVariable = errors.New("unresolved variable")

	// ErrLaunchFailed indicates the batch backend rejected the job.
	ErrLaunchFailed = errors.New("job launch failed")
)

// permanentErrors are data or configuration defects, or objects deleted before
// the event was handled. Retrying the same event will fail the same way, so
// the delivery should be acknowledged and dropped.
var permanentErrors = []error{
	ErrMalformedInput,
	ErrPatternNotFound,
	ErrIndexOutOfRange,
	ErrTypeConversion,
	ErrNestedProperty,
	ErrInvalidPropertyKey,
	ErrNoLabelMatched,
	ErrAmbiguousLabel,
	ErrUnknownLabel,
	ErrInvalidInput,
	ErrNotJobRequest,
	ErrUnknownTask,
	ErrUnresolvedVariable,
	ErrNotFound,
}

// IsPermanent reports whether err is a data or configuration defect rather
// than a transient I/O failure.
func IsPermanent(err error) bool {
	for _, target := range permanentErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// LabelError attaches the label and metadata function that failed to an
// enrichment error. The property set may be partially enriched when this
// error is returned.
type LabelError struct {
	Label    string
	Function string
	Err      error
}

// Error implements the error interface.
func (e *LabelError) Error() string {
	if e.Function == "" {
		return fmt.Sprintf("label %s: %v", e.Label, e.Err)
	}
	return fmt.Sprintf("label %s: %s: %v", e.Label, e.Function, e.Err)
}

// Unwrap returns the underlying error.
func (e *LabelError) Unwrap() error {
	return e.Err
}
