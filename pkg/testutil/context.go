package testutil

import (
	"net/http"

	"plancheck/pkg/requestcontext"
)

// WithActor adds an acting principal to the request context, simulating what
// the actor middleware does for requests carrying an X-Actor header.
func WithActor(req *http.Request, actor string) *http.Request {
	if actor == "" {
		return req
	}
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	if requestID == "" {
		return req
	}
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
