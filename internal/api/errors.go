package api

import (
	"errors"
	"fmt"
)

// User-facing messages.
const (
	MsgCredentialsRequired = "Enter username & password to authenticate."
	MsgFileRequired        = "Please choose a CSV file first."
	MsgFetchFailed         = "Unable to fetch history. Check your credentials and server."
	MsgUploadFailed        = "Upload failed. Please try again."
	MsgReportUnavailable   = "Selected dataset has no PDF yet."
	MsgReportFailed        = "Unable to download report."
)

// PreconditionError reports a missing input detected before any network call.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// UserMessage returns the text shown to the user.
func (e *PreconditionError) UserMessage() string { return e.Message }

// FetchError reports a failed history or report retrieval.
// Status is 0 when no HTTP response was received.
type FetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch failed (HTTP %d): %s", e.Status, e.Message)
	}
	return "fetch failed: " + e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// UserMessage returns the text shown to the user.
func (e *FetchError) UserMessage() string { return e.Message }

// UploadError reports a failed submission.
type UploadError struct {
	Status  int
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upload failed (HTTP %d): %s", e.Status, e.Message)
	}
	return "upload failed: " + e.Message
}

func (e *UploadError) Unwrap() error { return e.Err }

// UserMessage returns the text shown to the user.
func (e *UploadError) UserMessage() string { return e.Message }

// UserMessage extracts the user-facing text from any error in the taxonomy,
// falling back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
