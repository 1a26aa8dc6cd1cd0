package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openclaw/instantqr/config"
	"github.com/openclaw/instantqr/generator"
	"github.com/openclaw/instantqr/qrgen"
)

const errEmptyTextMessage = "please enter some text or a URL"

type generateRequest struct {
	Text           string        `json:"text"`
	Options        qrgen.Options `json:"options"`
	LogoBase64     string        `json:"logo_base64,omitempty"`
	LogoPercent    *int          `json:"logo_percent,omitempty"`
	LogoBackground *bool         `json:"logo_background,omitempty"`
}

type generateResponse struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	FilenameBase string            `json:"filename_base"`
	Timestamp    string            `json:"timestamp"`
	Version      int               `json:"version"`
	Level        string            `json:"level"`
	Warnings     []string          `json:"warnings"`
	PNGBase64    string            `json:"png_base64"`
	Files        map[string]string `json:"files"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, status, err := s.readGenerateRequest(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	res, err := s.Generator.Generate(r.Context(), req)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}

	files := make(map[string]string, len(qrgen.Formats))
	for _, f := range qrgen.Formats {
		files[string(f)] = fmt.Sprintf("/history/%s/%s", res.ID, f)
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, generateResponse{
		ID:           res.ID,
		Text:         res.Text,
		FilenameBase: res.FilenameBase,
		Timestamp:    res.Timestamp,
		Version:      res.Version,
		Level:        res.Level.String(),
		Warnings:     warnings,
		PNGBase64:    base64.StdEncoding.EncodeToString(res.Artifacts.PNG),
		Files:        files,
	})
}

// handleGenerateDownload renders one document straight from query
// parameters. Nothing is recorded in the history.
func (s *Server) handleGenerateDownload(w http.ResponseWriter, r *http.Request) {
	format, err := qrgen.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	q := r.URL.Query()
	opts, err := optionsFromForm(q, s.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.Generator.Render(r.Context(), generator.Request{Text: q.Get("text"), Options: opts})
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}
	writeFile(w, format.ContentType(), res.Filename(format), res.Artifacts.Get(format))
}

func (s *Server) writeGenerateError(w http.ResponseWriter, err error) {
	var verr *qrgen.ValidationError
	switch {
	case errors.Is(err, qrgen.ErrEmptyText):
		writeError(w, http.StatusBadRequest, errEmptyTextMessage)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, qrgen.ErrCapacity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger().Error("generate failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// readGenerateRequest accepts either a JSON body or a multipart form with an
// optional "logo" file. It returns the HTTP status to use on error.
func (s *Server) readGenerateRequest(w http.ResponseWriter, r *http.Request) (generator.Request, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" || ct == "application/x-www-form-urlencoded" {
		return s.readGenerateForm(r)
	}

	body := generateRequest{Options: s.Defaults}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return generator.Request{}, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)
	}

	req := generator.Request{Text: body.Text, Options: body.Options, LogoBackground: true}
	if body.LogoBackground != nil {
		req.LogoBackground = *body.LogoBackground
	}
	if body.LogoBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(body.LogoBase64)
		if err != nil {
			return generator.Request{}, http.StatusBadRequest, fmt.Errorf("invalid logo_base64: %w", err)
		}
		req.Logo = data
	}
	percent := s.defaultLogoPercent()
	if body.LogoPercent != nil {
		percent = *body.LogoPercent
	}
	ratio, err := logoRatio(percent)
	if err != nil {
		return generator.Request{}, http.StatusBadRequest, err
	}
	req.LogoRatio = ratio
	return req, http.StatusOK, nil
}

func (s *Server) readGenerateForm(r *http.Request) (generator.Request, int, error) {
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return generator.Request{}, http.StatusBadRequest, fmt.Errorf("failed to parse form: %w", err)
	}

	opts, err := optionsFromForm(r.Form, s.Defaults)
	if err != nil {
		return generator.Request{}, http.StatusBadRequest, err
	}
	req := generator.Request{Text: r.FormValue("text"), Options: opts, LogoBackground: true}

	if req.Logo, err = formFile(r, "logo"); err != nil {
		return generator.Request{}, http.StatusBadRequest, err
	}
	if req.LogoRatio, err = s.formLogoRatio(r.Form); err != nil {
		return generator.Request{}, http.StatusBadRequest, err
	}
	if v := r.Form.Get("logo_background"); v != "" {
		if req.LogoBackground, err = strconv.ParseBool(v); err != nil {
			return generator.Request{}, http.StatusBadRequest, fmt.Errorf("invalid logo_background %q", v)
		}
	}
	return req, http.StatusOK, nil
}

func (s *Server) formLogoRatio(form url.Values) (float64, error) {
	percent := s.defaultLogoPercent()
	if v := form.Get("logo_percent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid logo_percent %q", v)
		}
		percent = n
	}
	return logoRatio(percent)
}

func (s *Server) defaultLogoPercent() int {
	if s.DefaultLogoPercent == 0 {
		return int(generator.DefaultLogoRatio * 100)
	}
	return s.DefaultLogoPercent
}

func logoRatio(percent int) (float64, error) {
	if percent < config.MinLogoPercent || percent > config.MaxLogoPercent {
		return 0, fmt.Errorf("logo_percent must be between %d and %d", config.MinLogoPercent, config.MaxLogoPercent)
	}
	return float64(percent) / 100, nil
}

// formFile returns the contents of the uploaded file named key, or nil when
// the form has no such file.
func formFile(r *http.Request, key string) ([]byte, error) {
	file, _, err := r.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// optionsFromForm overrides fields of base with the form values present.
func optionsFromForm(form url.Values, base qrgen.Options) (qrgen.Options, error) {
	opts := base
	var err error

	if v := form.Get("level"); v != "" {
		if opts.Level, err = qrgen.ParseLevel(v); err != nil {
			return opts, err
		}
	}
	if v := form.Get("version"); v != "" {
		if opts.Version, err = qrgen.ParseChoice(v); err != nil {
			return opts, fmt.Errorf("invalid version: %w", err)
		}
	}
	if v := form.Get("mask"); v != "" {
		if opts.Mask, err = qrgen.ParseChoice(v); err != nil {
			return opts, fmt.Errorf("invalid mask: %w", err)
		}
	}
	for key, dst := range map[string]*int{"scale": &opts.Scale, "border": &opts.Border} {
		if v := form.Get(key); v != "" {
			if *dst, err = strconv.Atoi(v); err != nil {
				return opts, fmt.Errorf("invalid %s %q", key, v)
			}
		}
	}
	for key, dst := range map[string]*qrgen.Color{"dark": &opts.Dark, "light": &opts.Light} {
		if v := form.Get(key); v != "" {
			if *dst, err = qrgen.ParseColor(v); err != nil {
				return opts, err
			}
		}
	}
	for key, dst := range map[string]*bool{
		"micro":       &opts.Micro,
		"boost_error": &opts.BoostError,
		"transparent": &opts.Transparent,
	} {
		if v := form.Get(key); v != "" {
			if *dst, err = parseFlag(v); err != nil {
				return opts, fmt.Errorf("invalid %s %q", key, v)
			}
		}
	}
	return opts, opts.Validate()
}

// parseFlag accepts the usual boolean spellings plus HTML checkbox "on".
func parseFlag(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(v)
}
