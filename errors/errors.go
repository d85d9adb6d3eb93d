// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a nil or otherwise unusable argument is supplied.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoActiveExecution is returned when an operation requires the caller to run
	// inside the execution of a lane's current item and it does not.
	ErrNoActiveExecution = errors.New("no active lane execution")

	// ErrLaneDiverged is returned when the views of a single wrapped object do not
	// all report the same lane. This is a fatal configuration error.
	ErrLaneDiverged = errors.New("views of the same object report different lanes")

	// ErrLaneStopped is returned when work is submitted to a stopped lane.
	ErrLaneStopped = errors.New("lane is stopped")

	// ErrMailboxFull is returned when a bounded mailbox cannot accept more items.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrMailboxDisposed is returned when an item is pushed to a disposed mailbox.
	ErrMailboxDisposed = errors.New("mailbox is disposed")

	// ErrSuspendUnsupported is returned when suspension is requested by an item that
	// was not submitted with the preserve-context flag.
	ErrSuspendUnsupported = errors.New("item does not preserve its execution context")

	// ErrNotCompleted is returned when the result of a pending operation is read
	// before its wait has resolved.
	ErrNotCompleted = errors.New("pending operation has not completed")

	// ErrNoResultProducer is returned when the result of a pending operation without
	// a result function is requested.
	ErrNoResultProducer = errors.New("pending operation has no result function")

	// ErrNoPendingResult is returned when an item has no pending operation carrying a result.
	ErrNoPendingResult = errors.New("unable to get result of the pending operation")

	// ErrPendingExists is returned when an object already has a pending operation registered.
	ErrPendingExists = errors.New("pending operation already registered for object")

	// ErrMonitorActive is returned when a monitor is begun while another one is active.
	ErrMonitorActive = errors.New("a call monitor is already active")

	// ErrMonitorMismatch is returned when ending a monitor that is not the active one.
	ErrMonitorMismatch = errors.New("call monitor does not match the active monitor")

	// ErrNotAView is returned when a value expected to be an actor view is not one.
	ErrNotAView = errors.New("value is not an actor view")

	// ErrViewTypeMismatch is returned when an existing view does not implement the
	// requested interface.
	ErrViewTypeMismatch = errors.New("value is already a view but not for the requested interface")

	// ErrNoLane is returned when no lane has been created for an object.
	ErrNoLane = errors.New("unable to get the lane for the object: create a view for the object first")

	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrRegistryShutdown is returned when the registry is used after Shutdown.
	ErrRegistryShutdown = errors.New("registry is shut down")
)

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// InvocationError wraps a failure raised by the body of a queued item together
// with the name of the lane that ran it.
type InvocationError struct {
	lane string
	err  error
}

// enforce compilation error
var _ error = (*InvocationError)(nil)

// NewInvocationError returns an instance of InvocationError
func NewInvocationError(lane string, err error) *InvocationError {
	return &InvocationError{lane: lane, err: err}
}

// Error implements the standard error interface
func (e *InvocationError) Error() string {
	return fmt.Sprintf("lane %s: invocation failed: %v", e.lane, e.err)
}

func (e *InvocationError) Unwrap() error {
	return e.err
}

// Lane returns the name of the lane the failing item ran on
func (e *InvocationError) Lane() string {
	return e.lane
}
