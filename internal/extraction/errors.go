package extraction

import "fmt"

// ImageError indicates the uploaded image could not be decoded, converted
// or resized. It is always local and never worth retrying with the same bytes.
type ImageError struct {
	Reason string
	Err    error
}

func (e *ImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("preparing image (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("preparing image: %s", e.Reason)
}

func (e *ImageError) Unwrap() error { return e.Err }

// APIError indicates the remote model call failed: transport, auth, quota
// or a remote-side error. No partial result accompanies it.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extraction API error (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("extraction API error: %v", e.Err)
	}
	return fmt.Sprintf("extraction API error: %s", e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// ParseError indicates the model's response text could not be recovered as a
// JSON object. Raw always holds the original response text so callers can
// show it to the user for manual entry.
type ParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing model response (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parsing model response: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
