// Package pcm provides codec helpers for the 16-bit little-endian mono PCM
// stream format used by the realtime API: float to int16 conversion, base64
// framing, sample merging, and sample/millisecond arithmetic at 24 kHz.
package pcm
