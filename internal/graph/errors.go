package graph

import (
	"errors"
	"fmt"
)

// Kind classifies a step failure.
type Kind int

const (
	ClassificationFailure Kind = iota + 1
	ExtractionFailure
	FetchFailure
	SynthesisFailure
	InternalFailure
)

func (k Kind) String() string {
	switch k {
	case ClassificationFailure:
		return "classification failure"
	case ExtractionFailure:
		return "extraction failure"
	case FetchFailure:
		return "fetch failure"
	case SynthesisFailure:
		return "synthesis failure"
	case InternalFailure:
		return "internal failure"
	default:
		return "unknown failure"
	}
}

var (
	// ErrNoCity is recorded when the weather fetch is reached without a city.
	ErrNoCity = errors.New("no city extracted from query")
	// ErrEmptyResponse is returned when generation succeeds with blank text
	// where a value is required.
	ErrEmptyResponse = errors.New("empty response from generation")
)

// StepError is the failure a step hands back to the engine. The engine turns
// it into an entry of State.Errors and keeps going.
type StepError struct {
	Step string
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s in %s: %v", e.Kind, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(step string, kind Kind, err error) *StepError {
	return &StepError{Step: step, Kind: kind, Err: err}
}
