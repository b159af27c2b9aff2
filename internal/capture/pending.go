package capture

import (
	"context"
	"errors"
)

var (
	ErrIOFailure             = errors.New("io failure")
	ErrUnsupportedResolution = errors.New("unsupported resolution")
)

// Result is what a finished capture reports back.
type Result struct {
	Path string
	// Visible is false when verification found no subject in the frame.
	// It is true when verification is disabled.
	Visible bool
	Err     error
}

// Pending is the acknowledgement of one capture. It resolves once the
// image is on disk or the capture failed.
type Pending struct {
	done   chan struct{}
	result Result
}

func NewPending(path string) *Pending {
	return &Pending{done: make(chan struct{}), result: Result{Path: path}}
}

// Resolved returns an already finished acknowledgement.
func Resolved(res Result) *Pending {
	p := NewPending(res.Path)
	p.resolve(res.Visible, res.Err)
	return p
}

func (p *Pending) resolve(visible bool, err error) {
	p.result.Visible = visible
	p.result.Err = err
	close(p.done)
}

func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the capture lands or ctx ends. The returned error is
// only ever the context's; capture failures travel in Result.Err.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	default:
	}
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return Result{Path: p.result.Path}, ctx.Err()
	}
}
