package realtime

import "crypto/rand"

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateID returns prefix followed by a 21-character random alphanumeric
// suffix drawn from a CSPRNG. Callers that assign their own item or event IDs
// use it to avoid collisions with server-assigned ones.
func GenerateID(prefix string) string {
	return generateID(prefix, 21)
}

func generateID(prefix string, length int) string {
	buf := make([]byte, length)
	// rand.Read never fails on supported platforms.
	rand.Read(buf)
	out := make([]byte, 0, len(prefix)+length)
	out = append(out, prefix...)
	for _, b := range buf {
		// 256 is not a multiple of 62; the bias of ~0.2% per character is
		// irrelevant for non-secret identifiers.
		out = append(out, idAlphabet[int(b)%len(idAlphabet)])
	}
	return string(out)
}
