package codec

import (
	"encoding/base64"
	"math"
	"testing"
)

func TestDecodeBase64(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0x04}
	enc := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeBase64(enc)
	if err != nil {
		t.Fatalf("DecodeBase64 failed: %v", err)
	}
	if len(got) != len(raw) {
		t.Fatalf("expected %d bytes, got %d", len(raw), len(got))
	}
	for i := range raw {
		if got[i] != raw[i] {
			t.Errorf("byte %d: expected %x, got %x", i, raw[i], got[i])
		}
	}
}

func TestDecodeBase64_Malformed(t *testing.T) {
	_, err := DecodeBase64("!!!not-base64!!!")
	if err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if !IsMalformedPayload(err) {
		t.Errorf("expected MalformedPayloadError, got %T", err)
	}
}

func TestDecodePCM16_Values(t *testing.T) {
	// Samples: 0, 16384 (0.5), -32768 (-1.0), -1 (-1/32768)
	data := []byte{
		0x00, 0x00,
		0x00, 0x40,
		0x00, 0x80,
		0xFF, 0xFF,
	}

	buf := DecodePCM16(data, SampleRate)
	samples := buf.Samples()

	want := []float64{0, 0.5, -1.0, -1.0 / 32768.0}
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i, w := range want {
		if math.Abs(samples[i]-w) > 1e-12 {
			t.Errorf("sample %d: expected %v, got %v", i, w, samples[i])
		}
	}
}

func TestDecodePCM16_SampleCounts(t *testing.T) {
	// 2n bytes yield exactly n samples; 2n+1 bytes drop the trailing byte.
	for _, tt := range []struct {
		bytes   int
		samples int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1},
		{100, 50},
		{101, 50},
	} {
		buf := DecodePCM16(make([]byte, tt.bytes), SampleRate)
		if buf.Len() != tt.samples {
			t.Errorf("%d bytes: expected %d samples, got %d", tt.bytes, tt.samples, buf.Len())
		}
	}
}

func TestDecodePCM16_Deterministic(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC}

	a := DecodePCM16(data, SampleRate).Samples()
	b := DecodePCM16(data, SampleRate).Samples()

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between identical decodes", i)
		}
	}
}

func TestBuffer_Stream(t *testing.T) {
	buf := NewBuffer([]float64{0.1, 0.2, 0.3}, SampleRate)

	out := make([][2]float64, 2)
	n, ok := buf.Stream(out)
	if !ok || n != 2 {
		t.Fatalf("expected 2 samples streamed, got n=%d ok=%v", n, ok)
	}
	if out[0][0] != 0.1 || out[0][1] != 0.1 {
		t.Error("mono sample not duplicated to both channels")
	}

	n, ok = buf.Stream(out)
	if !ok || n != 1 {
		t.Fatalf("expected 1 remaining sample, got n=%d ok=%v", n, ok)
	}

	// Drained.
	n, ok = buf.Stream(out)
	if ok || n != 0 {
		t.Errorf("expected drained stream, got n=%d ok=%v", n, ok)
	}
}

func TestBuffer_Seek(t *testing.T) {
	buf := NewBuffer([]float64{0.1, 0.2, 0.3}, SampleRate)

	out := make([][2]float64, 8)
	buf.Stream(out)

	if err := buf.Seek(0); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if buf.Position() != 0 {
		t.Errorf("expected position 0 after rewind, got %d", buf.Position())
	}

	n, ok := buf.Stream(out)
	if !ok || n != 3 {
		t.Errorf("expected full replay after rewind, got n=%d ok=%v", n, ok)
	}

	if err := buf.Seek(99); err == nil {
		t.Error("expected error for out-of-range seek")
	}
}

func TestBuffer_Duration(t *testing.T) {
	buf := NewBuffer(make([]float64, SampleRate), SampleRate)
	if buf.Duration().Seconds() != 1.0 {
		t.Errorf("expected 1s duration, got %v", buf.Duration())
	}
}
