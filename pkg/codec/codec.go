// Package codec converts the narration capability's encoded audio payload
// into a playable sample buffer.
//
// The payload is headerless raw PCM: little-endian signed 16-bit mono
// samples at a fixed rate. Sample rate and channel count are contract
// constants shared with the synthesis capability; there is no
// self-describing metadata to read.
package codec

import (
	"encoding/base64"
	"fmt"
)

// SampleRate is the PCM contract rate shared with the narration capability.
const SampleRate = 24000

// MalformedPayloadError indicates an encoded audio payload that cannot be
// decoded. Distinguishable from plain capability failures in diagnostics.
type MalformedPayloadError struct {
	Reason string
	Err    error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "malformed payload: " + e.Reason
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// IsMalformedPayload checks whether err is a payload decoding failure.
func IsMalformedPayload(err error) bool {
	_, ok := err.(*MalformedPayloadError)
	return ok
}

// DecodeBase64 decodes a standard base64 string into raw bytes.
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &MalformedPayloadError{Reason: "invalid base64", Err: err}
	}
	return data, nil
}

// DecodePCM16 interprets data as little-endian signed 16-bit mono PCM and
// returns a buffer of normalized float64 samples at the given rate.
// An odd trailing byte (incomplete final sample) is dropped, not an error.
func DecodePCM16(data []byte, sampleRate int) *Buffer {
	n := len(data) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		// int16 reassembly must go through the signed type before widening.
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		samples[i] = float64(v) / 32768.0
	}
	return NewBuffer(samples, sampleRate)
}
