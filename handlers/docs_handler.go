package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-draw/docs"
)

// ServeOpenAPI serves the API description the Swagger UI loads.
func ServeOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(docs.OpenAPI)
}
