package http

import (
	"net/http"
	"time"

	"github.com/fricon/coreapi/pkg/authsdk"
	"github.com/fricon/coreapi/pkg/httpx"
)

// LivezHandler always returns 200 while the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
