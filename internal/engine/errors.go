package engine

import (
	"errors"
	"fmt"

	"github.com/ivlev/shotmaker/internal/capture"
)

// Configuration errors. They are reported by Setup before anything is
// instantiated.
var (
	ErrNoTemplates     = errors.New("no templates")
	ErrNilTemplate     = errors.New("template without name")
	ErrEmptyLightGroup = errors.New("empty light group")
	ErrNilLight        = errors.New("missing light")
	ErrNilCamera       = errors.New("missing camera")
	ErrNoPrimaryCamera = errors.New("no primary camera")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrBadOptions      = errors.New("invalid options")
	ErrAlreadyRan      = errors.New("sequencer already ran")
)

// CaptureError describes a job whose artifact was not produced.
type CaptureError struct {
	File     string
	Kind     error // capture.ErrIOFailure, capture.ErrUnsupportedResolution or nil
	Attempts int
	Err      error
}

func newCaptureError(file string, attempts int, err error) *CaptureError {
	ce := &CaptureError{File: file, Attempts: attempts, Err: err}
	switch {
	case errors.Is(err, capture.ErrIOFailure):
		ce.Kind = capture.ErrIOFailure
	case errors.Is(err, capture.ErrUnsupportedResolution):
		ce.Kind = capture.ErrUnsupportedResolution
	}
	return ce
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s failed after %d attempt(s): %v", e.File, e.Attempts, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// KindName is the short error kind used in logs and manifests.
func (e *CaptureError) KindName() string {
	switch e.Kind {
	case capture.ErrIOFailure:
		return "IOFailure"
	case capture.ErrUnsupportedResolution:
		return "UnsupportedResolution"
	default:
		return "Other"
	}
}
