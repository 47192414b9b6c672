//go:build !linux

package device

import (
	"errors"

	"github.com/sweeney/padshift/internal/button"
)

var errUnsupported = errors.New("device: not supported on this platform (requires Linux)")

// GPIOReader is not available on non-Linux platforms.
type GPIOReader struct{}

// NewGPIOReader returns an error on non-Linux platforms.
func NewGPIOReader(chipName string, pins map[button.ID]int) (*GPIOReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *GPIOReader) Read() (Sample, error) { return Sample{}, errUnsupported }

// Info is empty on non-Linux platforms.
func (r *GPIOReader) Info() Info { return Info{} }

// Close is not implemented on non-Linux platforms.
func (r *GPIOReader) Close() error { return nil }

// EvdevReader is not available on non-Linux platforms.
type EvdevReader struct{}

// NewEvdevReader returns an error on non-Linux platforms.
func NewEvdevReader(path string, adaptive bool) (*EvdevReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *EvdevReader) Read() (Sample, error) { return Sample{}, errUnsupported }

// Info is empty on non-Linux platforms.
func (r *EvdevReader) Info() Info { return Info{} }

// Close is not implemented on non-Linux platforms.
func (r *EvdevReader) Close() error { return nil }
