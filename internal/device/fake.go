package device

import (
	"errors"

	"github.com/sweeney/padshift/internal/button"
)

// FakeReader is a test double that returns scripted controller samples.
type FakeReader struct {
	// Samples contains scripted samples to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Desc is returned by Info()
	Desc Info
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples, Desc: Info{Name: "fake", Buttons: button.All()}}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Info returns Desc.
func (f *FakeReader) Info() Info {
	return f.Desc
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// Pressed is a convenience for building samples from button IDs.
func Pressed(ids ...button.ID) Sample {
	return Sample{Buttons: button.SetOf(ids...)}
}
