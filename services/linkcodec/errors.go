package linkcodec

import "errors"

var (
	// ErrMissingSecret is returned when a codec is constructed without a secret.
	ErrMissingSecret = errors.New("link codec: secret is required")

	// ErrDecryptionFailed is returned for malformed or tampered link blobs.
	// Expiry is not an error; see DecodedLink.IsExpired.
	ErrDecryptionFailed = errors.New("link codec: decryption failed")
)
