package utils

import (
	"encoding/json"
	"net/http"
)

// Json отправляет ответ в формате JSON с указанным статусом.
func Json(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// Err отправляет ошибку клиенту в виде {"error": "..."}.
func Err(w http.ResponseWriter, status int, err error) error {
	return Json(w, status, map[string]string{"error": err.Error()})
}
