package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON encodes data and writes it with the given status code.
//
// If data cannot be encoded the client gets a 500 and the encoding error is
// returned.
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return w.Write(jsonData)
}
