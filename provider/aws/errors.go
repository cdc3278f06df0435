package aws

import (
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws/awserr"
	"github.com/stackform/stackform/provider"
)

// classify maps an AWS error onto the error contract the executor
// understands: 404s become not-found, throttling and server errors become
// retryable, all other client errors are permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	aerr, ok := err.(awserr.RequestFailure)
	if !ok {
		return err
	}
	switch {
	case aerr.StatusCode() == http.StatusNotFound:
		return provider.NewNotFoundError(err)
	case aerr.StatusCode() == http.StatusTooManyRequests:
		return provider.NewRetryableError(err)
	case aerr.StatusCode() >= 500:
		return provider.NewRetryableError(err)
	default:
		return err
	}
}

// notFoundCode returns true if the error carries one of the given AWS error
// codes. Some AWS APIs signal missing resources with a 400 and a code rather
// than a 404.
func notFoundCode(err error, codes ...string) bool {
	aerr, ok := err.(awserr.Error)
	if !ok {
		return false
	}
	for _, code := range codes {
		if aerr.Code() == code {
			return true
		}
	}
	return false
}
