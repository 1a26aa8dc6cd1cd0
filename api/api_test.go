package api

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/instantqr/batch"
	"github.com/openclaw/instantqr/generator"
	"github.com/openclaw/instantqr/qrgen"
	"github.com/openclaw/instantqr/store"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	history, err := store.NewMemoryStore(5)
	require.NoError(t, err)
	gen := generator.NewService(history, log)

	s := &Server{
		Generator:          gen,
		Batch:              batch.NewRunner(gen, 2, 10, log),
		History:            history,
		Defaults:           qrgen.DefaultOptions(),
		DefaultLogoPercent: 20,
		MaxUploadBytes:     1 << 20,
		RequestTimeout:     10 * time.Second,
		HistoryBackend:     store.BackendMemory,
		Log:                log,
		Version:            "test",
		StartTime:          time.Now(),
	}
	return s, NewRouter(s)
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return do(t, h, req)
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string][2]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, f := range files {
		fw, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPageAndStatus(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Instant QR")

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[statusResponse](t, rec)
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "test", st.Version)
	assert.Equal(t, store.BackendMemory, st.HistoryBackend)
}

func TestGenerateJSON(t *testing.T) {
	_, h := newTestServer(t)

	rec := postJSON(t, h, "/generate", map[string]any{
		"text":    "https://example.com",
		"options": map[string]any{"level": "H", "scale": 4},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[generateResponse](t, rec)
	assert.Equal(t, "H", res.Level)
	assert.Equal(t, "https_example.com", res.FilenameBase)
	assert.Empty(t, res.Warnings)

	pngData, err := base64.StdEncoding.DecodeString(res.PNGBase64)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	require.NoError(t, err)
	modules := 17 + 4*res.Version
	assert.Equal(t, (modules+8)*4, cfg.Width, "unset options keep their defaults")

	rec = do(t, h, httptest.NewRequest(http.MethodGet, res.Files["svg"], nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), res.FilenameBase+"_"+res.Timestamp+".svg")
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = do(t, h, httptest.NewRequest(http.MethodGet, res.Files["pdf"], nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestGenerateEmptyText(t *testing.T) {
	s, h := newTestServer(t)

	rec := postJSON(t, h, "/generate", map[string]any{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please enter some text or a URL", decode[map[string]string](t, rec)["error"])

	list, err := s.History.List(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerateErrors(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"bad mask", map[string]any{"text": "x", "options": map[string]any{"mask": 8}}, http.StatusBadRequest},
		{"bad logo percent", map[string]any{"text": "x", "logo_percent": 45}, http.StatusBadRequest},
		{"bad logo encoding", map[string]any{"text": "x", "logo_base64": "%%%"}, http.StatusBadRequest},
		{"too long", map[string]any{"text": strings.Repeat("x", 8000)}, http.StatusUnprocessableEntity},
		{"fixed version too small", map[string]any{
			"text":    strings.Repeat("y", 200),
			"options": map[string]any{"version": 1},
		}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/generate", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(t, h, req).Code)
}

func TestGenerateMultipartWithLogo(t *testing.T) {
	_, h := newTestServer(t)

	logoImg := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for i := 0; i < len(logoImg.Pix); i += 4 {
		copy(logoImg.Pix[i:], []byte{0, 0, 0xff, 0xff})
	}
	var logoBuf bytes.Buffer
	require.NoError(t, png.Encode(&logoBuf, logoImg))

	req := multipartRequest(t, "/generate",
		map[string]string{"text": "hello", "level": "q", "boost_error": "on", "logo_percent": "25"},
		map[string][2]string{"logo": {"logo.png", logoBuf.String()}},
	)
	rec := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[generateResponse](t, rec)
	assert.Empty(t, res.Warnings)

	pngData, err := base64.StdEncoding.DecodeString(res.PNGBase64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(pngData))
	require.NoError(t, err)
	c := img.Bounds().Dx() / 2
	assert.Equal(t, color.NRGBA{B: 0xff, A: 0xff}, color.NRGBAModel.Convert(img.At(c, c)))
}

func TestGenerateMultipartBadLogoWarns(t *testing.T) {
	_, h := newTestServer(t)

	req := multipartRequest(t, "/generate",
		map[string]string{"text": "hello"},
		map[string][2]string{"logo": {"logo.png", "not an image"}},
	)
	rec := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[generateResponse](t, rec)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "logo processing failed")
}

func TestGenerateDownload(t *testing.T) {
	s, h := newTestServer(t)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/generate/png?text=hi&scale=2&border=0&dark=%23ff0000", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 21*2, img.Bounds().Dx())
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, color.NRGBAModel.Convert(img.At(0, 0)), "finder corner is dark")

	list, err := s.History.List(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, list, "direct downloads are not recorded")

	assert.Equal(t, http.StatusNotFound, do(t, h, httptest.NewRequest(http.MethodGet, "/generate/gif?text=hi", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, httptest.NewRequest(http.MethodGet, "/generate/svg?text=hi&level=z", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, httptest.NewRequest(http.MethodGet, "/generate/svg", nil)).Code)
}

func TestHistory(t *testing.T) {
	_, h := newTestServer(t)

	for _, text := range []string{"one", "two", "three"} {
		require.Equal(t, http.StatusOK, postJSON(t, h, "/generate", map[string]any{"text": text}).Code)
	}

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/history?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]store.Summary](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].Text)
	assert.Equal(t, "two", list[1].Text)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/history/"+list[0].ID+"/png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, do(t, h, httptest.NewRequest(http.MethodGet, "/history/missing/png", nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, httptest.NewRequest(http.MethodGet, "/history/"+list[0].ID+"/txt", nil)).Code)

	rec = do(t, h, httptest.NewRequest(http.MethodDelete, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Empty(t, decode[[]store.Summary](t, rec))
}

func TestHistoryBounded(t *testing.T) {
	_, h := newTestServer(t)

	for i := 0; i < 8; i++ {
		require.Equal(t, http.StatusOK, postJSON(t, h, "/generate", map[string]any{"text": strings.Repeat("z", i+1)}).Code)
	}
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Len(t, decode[[]store.Summary](t, rec), 5)
}

func TestBatch(t *testing.T) {
	_, h := newTestServer(t)

	req := multipartRequest(t, "/batch",
		map[string]string{"level": "L"},
		map[string][2]string{"file": {"codes.csv", "value\na\nb\n"}},
	)
	rec := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "qr_batch_")

	body := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	var names []string
	var manifest batch.Manifest
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == batch.ManifestName {
			rc, err := f.Open()
			require.NoError(t, err)
			require.NoError(t, json.NewDecoder(rc).Decode(&manifest))
			rc.Close()
		}
	}
	assert.Len(t, names, 7)
	require.Len(t, manifest.Generated, 2)
	assert.Equal(t, "a", manifest.Generated[0].Value)
	assert.Equal(t, "b", manifest.Generated[1].Value)
	assert.Equal(t, "L", manifest.Generated[0].Level)
	assert.Empty(t, manifest.Failed)
}

func TestBatchErrors(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, multipartRequest(t, "/batch", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, multipartRequest(t, "/batch", nil, map[string][2]string{"file": {"empty.txt", "\n\n"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	many := strings.Repeat("v\n", 11)
	rec = do(t, h, multipartRequest(t, "/batch", nil, map[string][2]string{"file": {"many.txt", many}}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	tooLong := strings.Repeat("x", 8000) + "\n"
	rec = do(t, h, multipartRequest(t, "/batch", nil, map[string][2]string{"file": {"long.txt", tooLong}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	m := decode[batch.Manifest](t, rec)
	assert.Empty(t, m.Generated)
	require.Len(t, m.Failed, 1)
	assert.Equal(t, 1, m.Failed[0].Line)
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, httptest.NewRequest(http.MethodOptions, "/generate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
