package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openclaw/instantqr/generator"
	"github.com/openclaw/instantqr/qrgen"
	"github.com/openclaw/instantqr/store"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)

	entries, err := s.History.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []store.Summary{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	format, err := qrgen.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	e, err := s.History.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var data []byte
	switch format {
	case qrgen.FormatPNG:
		data = e.PNG
	case qrgen.FormatSVG:
		data = e.SVG
	case qrgen.FormatPDF:
		data = e.PDF
	}
	writeFile(w, format.ContentType(), generator.Filename(e.FilenameBase, e.Timestamp, format), data)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.History.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
