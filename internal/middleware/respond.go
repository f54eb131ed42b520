// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"net/http"

	"collabforms/internal/fault"
)

// errorBody is the JSON error envelope shared with the handlers package.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError sends a JSON error response.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, Kind: kind})
}

// writeFault sends err using its fault kind for the status code. Messages
// of server-side faults are replaced with a generic one.
func writeFault(w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	msg := "internal server error"
	if f, ok := fault.As(err); ok && fault.IsClientError(err) {
		msg = f.Message
	}
	writeError(w, kind.HTTPStatus(), kind.String(), msg)
}
