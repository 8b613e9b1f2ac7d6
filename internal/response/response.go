// Package response writes the handful of response shapes the legacy
// client understands. Every client-facing response is success-shaped
// except the explicit "not implemented" reply to POST requests.
package response

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	// StatusHeader is the marker header the client checks on every reply.
	StatusHeader = "X-CAPCOM-STATUS"
	// StatusOK is the only value ever sent in StatusHeader.
	StatusOK = "OK"

	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeHTML        = "text/html; charset=utf-8"

	// CompatModeLoad selects the load reply of the compatibility endpoint.
	CompatModeLoad = "load"
)

var (
	// 0x8c: allowed during load
	compatLoad = []byte{0x8c, 0x00, 0x00, 0x00}
	// 0x01: allowed
	compatDefault = []byte{0x01, 0x00, 0x00, 0x00}
)

// SelectCompatBytes returns the 4-byte reply of the compatibility
// endpoint for the given mode. Mode comparison is case-insensitive.
func SelectCompatBytes(mode string) []byte {
	if strings.ToLower(mode) == CompatModeLoad {
		return append([]byte(nil), compatLoad...)
	}
	return append([]byte(nil), compatDefault...)
}

// File writes a binary file payload.
func File(w http.ResponseWriter, data []byte) {
	h := w.Header()
	h.Set(StatusHeader, StatusOK)
	h.Set("Content-Type", ContentTypeOctetStream)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// EmptyOK writes a bodiless success response.
func EmptyOK(w http.ResponseWriter) {
	h := w.Header()
	h.Set(StatusHeader, StatusOK)
	h.Set("Content-Type", ContentTypeHTML)
	h.Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

// Compat writes the compatibility endpoint reply for mode.
func Compat(w http.ResponseWriter, mode string) {
	File(w, SelectCompatBytes(mode))
}

// Text writes a plain success body without the status marker.
func Text(w http.ResponseWriter, body string) {
	h := w.Header()
	h.Set("Content-Type", ContentTypeHTML)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// NotImplemented rejects a request the server does not emulate.
func NotImplemented(w http.ResponseWriter) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusNotImplemented)
}
