package apperror

import (
	"errors"
	"fmt"
)

// Sentinel categories. Services wrap these so controllers and the error
// middleware can classify failures with errors.Is without string matching.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConfiguration  = errors.New("configuration error")
	ErrUpstreamStream = errors.New("upstream stream failure")
	ErrIngestion      = errors.New("ingestion failure")
)

func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func InvalidInput(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidInput)
}

func Unauthorized(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrUnauthorized)
}

func Configuration(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrConfiguration)
}

// UpstreamStream marks a mid-stream agent failure. The stream handler turns
// it into a single terminal "error" event instead of letting it escape.
func UpstreamStream(err error) error {
	return fmt.Errorf("%w: %v", ErrUpstreamStream, err)
}

// Ingestion marks a per-file failure. The batch keeps going; the ledger
// record stays REGISTERED.
func Ingestion(filename string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrIngestion, filename, err)
}
