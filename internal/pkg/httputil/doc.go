// Package httputil holds the JSON response helpers shared by the API and auth handlers,
// so every endpoint writes the same content type and error envelope.
package httputil
