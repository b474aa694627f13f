// Package fuse provides the one-way cancellation signal shared by every
// long-running loop of a run.
package fuse

import (
	"context"
	"errors"
)

// ErrTripped is the cause reported for a fuse tripped without a fault.
var ErrTripped = errors.New("fuse tripped")

// Fuse is a cooperative stop signal. Once tripped it stays tripped for the
// rest of the run. It is safe for concurrent use.
type Fuse struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// New returns an untripped fuse. Cancelling parent trips the fuse, which lets
// a signal-aware context stop the run.
func New(parent context.Context) *Fuse {
	ctx, cancel := context.WithCancelCause(parent)
	return &Fuse{ctx: ctx, cancel: cancel}
}

// Trip trips the fuse. Calling it again is a no-op.
func (f *Fuse) Trip() {
	f.cancel(ErrTripped)
}

// Fail trips the fuse and records err as the cause, unless the fuse was
// already tripped, in which case the first cause is kept.
func (f *Fuse) Fail(err error) {
	if err == nil {
		err = ErrTripped
	}
	f.cancel(err)
}

// IsTripped reports whether the fuse has been tripped.
func (f *Fuse) IsTripped() bool {
	return f.ctx.Err() != nil
}

// Done returns a channel that is closed when the fuse trips.
func (f *Fuse) Done() <-chan struct{} {
	return f.ctx.Done()
}

// Context returns a context that is cancelled when the fuse trips.
func (f *Fuse) Context() context.Context {
	return f.ctx
}

// Cause returns why the fuse tripped, or nil if it has not.
// A parent context cancellation is reported as context.Canceled.
func (f *Fuse) Cause() error {
	return context.Cause(f.ctx)
}

// Fault returns the recorded failure cause, or nil if the fuse is untripped
// or was tripped by Trip or by its parent context.
func (f *Fuse) Fault() error {
	err := f.Cause()
	if err == nil || errors.Is(err, ErrTripped) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
