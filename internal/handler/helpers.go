package handler

import (
	"encoding/json"
	"net/http"
	"net/mail"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}
