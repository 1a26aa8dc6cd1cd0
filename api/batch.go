package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/openclaw/instantqr/batch"
	"github.com/openclaw/instantqr/generator"
)

// handleBatch reads a CSV or TXT upload in the "file" field and answers
// with a ZIP of every generated code. Values that fail are listed in the
// archive manifest; when all of them fail the manifest is returned as JSON
// with status 422 instead.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	values, err := batch.Parse(header.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := optionsFromForm(r.Form, s.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tmpl := generator.Request{Options: opts, LogoBackground: true}
	if tmpl.Logo, err = formFile(r, "logo"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if tmpl.LogoRatio, err = s.formLogoRatio(r.Form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	archive, err := s.Batch.Run(r.Context(), values, tmpl)
	if err != nil {
		var tooMany *batch.TooManyValuesError
		switch {
		case errors.As(err, &tooMany):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, batch.ErrNoValues):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if len(archive.Items) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, archive.Manifest())
		return
	}

	var buf bytes.Buffer
	if err := archive.WriteZip(&buf); err != nil {
		s.logger().Error("write batch archive", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger().Info("batch served",
		"file", header.Filename,
		"upload", humanize.Bytes(uint64(header.Size)),
		"archive", humanize.Bytes(uint64(buf.Len())),
	)
	writeFile(w, "application/zip", archive.Name, buf.Bytes())
}
