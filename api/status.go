package api

import (
	"net/http"
	"time"
)

type statusResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	Version        string `json:"version"`
	HistoryBackend string `json:"history_backend"`
	HistoryEntries int    `json:"history_entries"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	entries, err := s.History.List(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:         "ok",
		Uptime:         time.Since(s.StartTime).Truncate(time.Second).String(),
		Version:        s.Version,
		HistoryBackend: s.HistoryBackend,
		HistoryEntries: len(entries),
	})
}
