package pcm

import (
	"encoding/base64"
	"encoding/binary"
)

// SampleRate is the fixed sample rate of the realtime audio stream in Hz.
// All audio exchanged with the server is 16-bit little-endian mono at this
// rate.
const SampleRate = 24000

// FloatTo16Bit converts float32 samples in [-1, 1] to int16 PCM samples.
// Values outside the range are clamped.
func FloatTo16Bit(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s < -1 {
			s = -1
		} else if s > 1 {
			s = 1
		}
		if s < 0 {
			out[i] = int16(s * 0x8000)
		} else {
			out[i] = int16(s * 0x7fff)
		}
	}
	return out
}

// Int16ToBytes packs int16 samples into little-endian bytes.
func Int16ToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// BytesToInt16 unpacks little-endian bytes into int16 samples. A trailing odd
// byte is dropped.
func BytesToInt16(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// EncodeInt16 encodes int16 samples as standard base64 of their little-endian
// byte representation.
func EncodeInt16(samples []int16) string {
	return base64.StdEncoding.EncodeToString(Int16ToBytes(samples))
}

// DecodeInt16 decodes a standard base64 string into int16 samples.
func DecodeInt16(s string) ([]int16, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return BytesToInt16(data), nil
}

// MergeInt16 concatenates two sample slices into a freshly allocated slice.
func MergeInt16(a, b []int16) []int16 {
	out := make([]int16, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}

// SamplesToMs converts a sample count to milliseconds at SampleRate,
// truncating toward zero.
func SamplesToMs(samples int) int {
	return samples * 1000 / SampleRate
}

// MsToSamples converts milliseconds to a sample count at SampleRate.
func MsToSamples(ms int) int {
	return ms * SampleRate / 1000
}
