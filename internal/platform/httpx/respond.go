// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes caps request bodies; no API payload comes close to 1 MiB.
const maxBodyBytes = 1 << 20

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response. The type URI depends
// only on the status code, so responses for the same failure class stay
// byte-identical.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Type:   problemType(status),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://taskhub.dev/problems/validation"
	case http.StatusUnauthorized:
		return "https://taskhub.dev/problems/unauthorized"
	case http.StatusNotFound:
		return "https://taskhub.dev/problems/not-found"
	case http.StatusConflict:
		return "https://taskhub.dev/problems/conflict"
	default:
		return "about:blank"
	}
}

// DecodeJSON decodes a JSON request body into the target struct. Oversized
// bodies and trailing garbage after the first value are rejected.
func DecodeJSON(r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("httpx: unexpected data after JSON body")
	}
	return nil
}
