// Package provider defines the capability boundary to the system that
// performs the real creation and destruction of infrastructure.
//
// The core never talks to a cloud control plane directly; everything beyond
// this interface, including timeouts and rate limits, is the provider's
// concern.
package provider

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// A Provider provisions and destroys infrastructure for resource kinds.
type Provider interface {
	// Create provisions infrastructure for a node. The config has all
	// references resolved to concrete values. On success it returns the
	// provider-assigned attributes (URL, DNS name, ARN).
	Create(ctx context.Context, kind string, config cty.Value) (cty.Value, error)

	// Destroy tears down previously provisioned infrastructure, identified
	// by the attributes returned from Create. Destroying infrastructure
	// that no longer exists must return an error for which IsNotFound is
	// true.
	Destroy(ctx context.Context, kind string, attrs cty.Value) error
}

// A ProviderError wraps a failure from the provider with the node it
// occurred on.
type ProviderError struct {
	ID   string
	Kind string
	Op   string // create / destroy
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Kind, e.ID, e.Err)
}

// Cause returns the underlying provider failure.
func (e *ProviderError) Cause() error { return e.Err }

// An UnsupportedKindError is returned by providers that have no provisioning
// logic for a resource kind.
type UnsupportedKindError struct {
	Kind string
}

func (e UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported resource kind %q", e.Kind)
}

// A notFounder reports that the infrastructure targeted by an operation does
// not exist.
type notFounder interface {
	NotFound() bool
}

// A retryable reports that the failed operation may succeed if retried.
type retryable interface {
	CanRetry() bool
}

// IsNotFound returns true if the error indicates the targeted infrastructure
// does not exist. Teardown treats such errors as success.
func IsNotFound(err error) bool {
	for err != nil {
		if nf, ok := err.(notFounder); ok {
			return nf.NotFound()
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = cause.Cause()
	}
	return false
}

// IsRetryable returns true if the provider marked the error as transient.
func IsRetryable(err error) bool {
	for err != nil {
		if r, ok := err.(retryable); ok {
			return r.CanRetry()
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = cause.Cause()
	}
	return false
}

type notFoundErr struct{ err error }

func (e notFoundErr) Error() string  { return e.err.Error() }
func (e notFoundErr) NotFound() bool { return true }

// NewNotFoundError marks an error as not-found.
func NewNotFoundError(err error) error {
	return notFoundErr{err: err}
}

type retryableErr struct{ err error }

func (e retryableErr) Error() string  { return e.err.Error() }
func (e retryableErr) CanRetry() bool { return true }

// NewRetryableError marks an error as transient, allowing the executor to
// retry the operation.
func NewRetryableError(err error) error {
	return retryableErr{err: err}
}
