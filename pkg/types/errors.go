package types

import (
	"errors"
	"fmt"
)

// ErrSweepInProgress is returned when another sweep holds the sweep lock
var ErrSweepInProgress = errors.New("sweep already in progress")

// ErrAccountNotFound is returned when an account is not found
type ErrAccountNotFound struct {
	Id string
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %s", e.Id)
}

// From checks if the given error is an ErrAccountNotFound
func (e *ErrAccountNotFound) From(err error) bool {
	var notFound *ErrAccountNotFound
	return errors.As(err, &notFound)
}

// ErrFolderNotFound is returned when a folder is not found
type ErrFolderNotFound struct {
	AccountId string
	Path      string
}

func (e *ErrFolderNotFound) Error() string {
	return fmt.Sprintf("folder not found: %s (account %s)", e.Path, e.AccountId)
}

// ErrMessageNotFound is returned when a message is not found
type ErrMessageNotFound struct {
	Id string
}

func (e *ErrMessageNotFound) Error() string {
	return fmt.Sprintf("message not found: %s", e.Id)
}

// ErrJobNotFound is returned when a sync job cannot be found
type ErrJobNotFound struct {
	Id string
}

func (e *ErrJobNotFound) Error() string {
	return "job not found: " + e.Id
}

// ErrJobNotClaimable is returned when a job is no longer in the status an
// update expects, e.g. another sweep already started it.
type ErrJobNotClaimable struct {
	Id     string
	Status JobStatus
}

func (e *ErrJobNotClaimable) Error() string {
	return fmt.Sprintf("job %s is not %s", e.Id, e.Status)
}

// ErrCapabilityUnsupported is returned when the store lacks an optional field set
type ErrCapabilityUnsupported struct {
	Capability string
}

func (e *ErrCapabilityUnsupported) Error() string {
	return fmt.Sprintf("store does not support %s", e.Capability)
}

// IsNotFound reports whether err is any of the not-found errors
func IsNotFound(err error) bool {
	var (
		account *ErrAccountNotFound
		folder  *ErrFolderNotFound
		message *ErrMessageNotFound
		job     *ErrJobNotFound
	)
	return errors.As(err, &account) || errors.As(err, &folder) ||
		errors.As(err, &message) || errors.As(err, &job)
}

// ErrJobNotRetryable is returned when retrying a job that has not failed or been cancelled
type ErrJobNotRetryable struct {
	Id     string
	Status JobStatus
}

func (e *ErrJobNotRetryable) Error() string {
	return fmt.Sprintf("job %s is %s and cannot be retried", e.Id, e.Status)
}
