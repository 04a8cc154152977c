package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrCapability indicates a remote call failed or returned an unusable response.
	ErrCapability = errors.New("capability call failed")
	// ErrCredentials indicates the provider has no usable credentials.
	ErrCredentials = errors.New("missing or rejected credentials")
	// ErrDisabled is returned by capabilities configured with provider "none".
	ErrDisabled = errors.New("capability disabled")
	// ErrUnknownProvider indicates a provider name with no implementation.
	ErrUnknownProvider = errors.New("unknown provider")
)

func unknownProvider(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}
