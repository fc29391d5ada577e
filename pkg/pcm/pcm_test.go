package pcm

import (
	"testing"
)

func TestFloatTo16Bit(t *testing.T) {
	testCases := []struct {
		name string
		in   float32
		want int16
	}{
		{"zero", 0, 0},
		{"positive full scale", 1, 0x7fff},
		{"negative full scale", -1, -0x8000},
		{"half scale", 0.5, 0x3fff},
		{"clamp above", 1.5, 0x7fff},
		{"clamp below", -2, -0x8000},
	}

	for _, tc := range testCases {
		got := FloatTo16Bit([]float32{tc.in})
		if len(got) != 1 {
			t.Fatalf("%s: expected 1 sample, got %d", tc.name, len(got))
		}
		if got[0] != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got[0])
		}
	}
}

func TestInt16BytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -12345}
	data := Int16ToBytes(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(data))
	}
	// little-endian check on the second sample (1 -> 0x01 0x00)
	if data[2] != 0x01 || data[3] != 0x00 {
		t.Errorf("expected little-endian layout, got % x", data[2:4])
	}
	back := BytesToInt16(data)
	if len(back) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(back))
	}
	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, samples[i], back[i])
		}
	}
}

func TestBytesToInt16_OddLength(t *testing.T) {
	got := BytesToInt16([]byte{0x01, 0x00, 0xff})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestBase64RoundTrip(t *testing.T) {
	testCases := [][]int16{
		nil,
		{0},
		{0, 1, 2, 3},
		{-32768, 32767},
	}
	for _, samples := range testCases {
		encoded := EncodeInt16(samples)
		decoded, err := DecodeInt16(encoded)
		if err != nil {
			t.Fatalf("DecodeInt16 error: %v", err)
		}
		if len(decoded) != len(samples) {
			t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
		}
		for i := range samples {
			if decoded[i] != samples[i] {
				t.Errorf("sample %d: expected %d, got %d", i, samples[i], decoded[i])
			}
		}
	}
}

func TestDecodeInt16_Invalid(t *testing.T) {
	if _, err := DecodeInt16("not base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestMergeInt16(t *testing.T) {
	a := []int16{1, 2}
	b := []int16{3, 4, 5}
	merged := MergeInt16(a, b)
	if len(merged) != len(a)+len(b) {
		t.Fatalf("expected length %d, got %d", len(a)+len(b), len(merged))
	}
	want := []int16{1, 2, 3, 4, 5}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], merged[i])
		}
	}

	// Associativity: (a+b)+c == a+(b+c)
	c := []int16{6}
	left := MergeInt16(MergeInt16(a, b), c)
	right := MergeInt16(a, MergeInt16(b, c))
	if len(left) != len(right) {
		t.Fatalf("associativity: lengths differ: %d vs %d", len(left), len(right))
	}
	for i := range left {
		if left[i] != right[i] {
			t.Errorf("associativity: index %d differs: %d vs %d", i, left[i], right[i])
		}
	}

	// The merge must not alias its inputs.
	merged[0] = 99
	if a[0] != 1 {
		t.Error("merge must copy, not alias")
	}
}

func TestSampleMsConversion(t *testing.T) {
	testCases := []struct {
		samples int
		ms      int
	}{
		{0, 0},
		{24, 1},
		{24000, 1000},
		{12000, 500},
	}
	for _, tc := range testCases {
		if got := SamplesToMs(tc.samples); got != tc.ms {
			t.Errorf("SamplesToMs(%d): expected %d, got %d", tc.samples, tc.ms, got)
		}
		if got := MsToSamples(tc.ms); got != tc.samples {
			t.Errorf("MsToSamples(%d): expected %d, got %d", tc.ms, tc.samples, got)
		}
	}

	// Truncation toward zero.
	if got := SamplesToMs(23); got != 0 {
		t.Errorf("SamplesToMs(23): expected 0, got %d", got)
	}
}
