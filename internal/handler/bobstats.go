package handler

import (
	"io"
	"net/http"

	"github.com/zkBob/bob-circulating-supply/internal/bobstats"
)

// StatsData serves the latest stats snapshot, or an empty-but-well-formed
// document when none has been uploaded yet.
func StatsData(svc *bobstats.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Load(r.Context()))
	}
}

// StatsYield serves the merged gain document of both stored periods.
func StatsYield(svc *bobstats.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Yield(r.Context()))
	}
}

// StatsUpload validates and stores a new stats snapshot. All outcomes are
// reported in-band with HTTP 200.
func StatsUpload(svc *bobstats.Service, uploadToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, uploadToken) {
			writeJSON(w, UploadResponse{Status: statusIncorrectAuth})
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, UploadResponse{Status: statusIncorrectData})
			return
		}
		if err := svc.Store(r.Context(), payload); err != nil {
			writeJSON(w, UploadResponse{Status: statusIncorrectData})
			return
		}
		writeJSON(w, UploadResponse{Status: statusSuccess})
	}
}
