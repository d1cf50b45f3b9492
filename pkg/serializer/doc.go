// Package serializer provides JSON encoding helpers for HTTP request and
// response bodies.
//
// For HTTP responses:
//
//	serializer.RespondJSON(w, http.StatusOK, data)
//
// The package buffers encoding before writing headers so that encoding
// failures never produce partial responses.
package serializer
