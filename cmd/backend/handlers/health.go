package handlers

import (
	"net/http"
)

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthHandler answers liveness probes. It deliberately touches no
// dependencies; a healthy response means only that the process serves HTTP.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Service: "caseline"})
}
