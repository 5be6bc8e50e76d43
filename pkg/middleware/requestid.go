package middleware

import (
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader is the HTTP response header carrying the correlation id.
const RequestIDHeader = "X-Request-ID"

// NewRequestID generates a fresh correlation id: an uppercase UUID, unique
// per request, used to tie the start and completion log lines together.
func NewRequestID() string {
	return strings.ToUpper(uuid.New().String())
}
