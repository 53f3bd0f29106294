package server

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the JSON envelope of every API reply.
type APIResponse struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func success(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, APIResponse{
		Status:  http.StatusOK,
		Success: true,
		Message: message,
		Data:    data,
	})
}

func created(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusCreated, APIResponse{
		Status:  http.StatusCreated,
		Success: true,
		Message: message,
		Data:    data,
	})
}

func fail(w http.ResponseWriter, statusCode int, message string, errs any) {
	writeJSON(w, statusCode, APIResponse{
		Status:  statusCode,
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
