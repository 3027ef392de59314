package domain

import "errors"

// Client-facing validation failures. Messages are returned to the caller as-is.
var (
	ErrURLRequired          = errors.New("URL is required")
	ErrInvalidURL           = errors.New("invalid URL format")
	ErrSSIDRequired         = errors.New("network name (SSID) is required")
	ErrInvalidEncryption    = errors.New("encryption must be one of WPA, WEP, nopass")
	ErrRecipientRequired    = errors.New("recipient email is required")
	ErrEmptyPayload         = errors.New("QR code data cannot be empty")
	ErrPayloadTooLong       = errors.New("QR code data is too long to encode")
	ErrUnsupportedType      = errors.New("unsupported QR code type")
	ErrInvalidExpiration    = errors.New("invalid expiration date format")
	ErrExpirationInPast     = errors.New("expiration must be a future date/time")
	ErrInvalidRenderOptions = errors.New("invalid render options")
	ErrInvalidRequest       = errors.New("invalid request payload")
)

var clientErrors = []error{
	ErrURLRequired,
	ErrInvalidURL,
	ErrSSIDRequired,
	ErrInvalidEncryption,
	ErrRecipientRequired,
	ErrEmptyPayload,
	ErrPayloadTooLong,
	ErrUnsupportedType,
	ErrInvalidExpiration,
	ErrExpirationInPast,
	ErrInvalidRenderOptions,
	ErrInvalidRequest,
}

// IsClientError reports whether err is caused by caller input and should be
// answered with a 4xx status and its message.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
