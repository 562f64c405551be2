package extraction

import "context"

// Disabled is an Extractor installed when no API credential is configured.
// The process starts and serves manual entry normally; every extraction
// attempt fails with an APIError instead.
type Disabled struct{}

// Extract always fails
func (Disabled) Extract(ctx context.Context, img NormalizedImage) (string, error) {
	return "", &APIError{Message: "no API credential configured"}
}

// Close is a no-op
func (Disabled) Close() error {
	return nil
}
