package api

import "math/rand/v2"

const (
	// ErrorCodeLength is the length of error_code values.
	ErrorCodeLength = 12
	// CorrelationCodeLength is the length of codes that tie log lines together.
	CorrelationCodeLength = 16
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomCode returns n random alphanumeric characters. The codes only need to be
// unique enough to search logs for, not unpredictable.
func RandomCode(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(b)
}
