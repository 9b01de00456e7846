package common

import "fmt"

// Validationf returns an error wrapping ErrorValidation with a formatted
// detail message, so errors.Is(err, ErrorValidation) holds.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrorValidation, fmt.Sprintf(format, args...))
}

// Detail strips the sentinel prefix from an error built by Validationf and
// returns the human-readable part. Other errors are returned verbatim.
func Detail(err error, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
