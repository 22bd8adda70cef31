package testutil

import (
	"net/http"

	id "wellfile/pkg/domain"
	"wellfile/pkg/requestcontext"
)

// WithOperator adds an operator identity to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the operatorID is not a valid UUID, it will not be added to the context.
func WithOperator(req *http.Request, operatorID, name string) *http.Request {
	ctx := req.Context()
	if operatorID != "" {
		if parsed, err := id.ParseOperatorID(operatorID); err == nil {
			ctx = requestcontext.WithOperatorID(ctx, parsed)
		}
	}
	if name != "" {
		ctx = requestcontext.WithOperatorName(ctx, name)
	}
	return req.WithContext(ctx)
}

// WithClientMetadata adds client IP and user agent to the request context.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent)
	return req.WithContext(ctx)
}
