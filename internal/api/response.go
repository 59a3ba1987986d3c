package api

import (
	"encoding/json"
	"log"
	"net/http"

	"gridcalc/internal/models"
)

func SendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Ошибка при кодировании ответа: %v", err)
	}
}

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	SendJSON(w, status, models.ErrorResponse{Error: message})
}
