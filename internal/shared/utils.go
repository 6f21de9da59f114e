// Package shared provides small helpers used across the client, currently
// secure memory wiping for passphrases and unsealed keys.
package shared

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Used to remove passphrases and signing keys from memory after use.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
