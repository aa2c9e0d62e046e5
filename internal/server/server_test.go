package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/cardpunch/internal/calibrate"
	"github.com/mmr-tortoise/cardpunch/internal/engine"
	"github.com/mmr-tortoise/cardpunch/internal/logger"
	"github.com/mmr-tortoise/cardpunch/internal/machine"
	"github.com/mmr-tortoise/cardpunch/internal/model"
)

var fixedNow = time.Unix(1700000000, 0)

func newTestServer(t *testing.T, logs *bytes.Buffer) *Server {
	t.Helper()
	reg, err := machine.Default()
	require.NoError(t, err)
	e, err := engine.New(reg)
	require.NoError(t, err)

	cfg := Config{
		DPI: 50,
		Now: func() time.Time { return fixedNow },
	}
	if logs != nil {
		cfg.Logger = logger.New(logger.Config{Output: logs, Debug: true})
	}
	return New(e, cfg)
}

// multipartRequest builds a POST /pcgenerator/ request. A nil file omits
// the upfile part.
func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("upfile", "payload.bin")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/pcgenerator/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestForm(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/", "/pcgenerator/"} {
		t.Run(path, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), `<option value="ibm-80">`)
			assert.Contains(t, w.Body.String(), `max="50"`)

			_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
			assert.NoError(t, err)
		})
	}
}

func TestGenerate_SVG(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, multipartRequest(t, map[string]string{"machine": "ref-profile", "vert": "1"}, []byte{0x41}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=punchcard-1700000000.svg", w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "<?xml"))
	assert.NotContains(t, w.Body.String(), "fill:#000000")
}

func TestGenerate_Flags(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("fill", func(t *testing.T) {
		w := serve(s, multipartRequest(t, map[string]string{"machine": "ref-profile", "vert": "1", "fill": "fill"}, []byte{0x41}))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, strings.Count(w.Body.String(), "fill:#000000"))
	})

	t.Run("blank ignores payload", func(t *testing.T) {
		w := serve(s, multipartRequest(t, map[string]string{"machine": "ref-profile", "vert": "1", "blank": "blank", "fill": "fill"}, []byte("far too long for one strip")))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "fill:#000000")
	})

	t.Run("checkbox needs its own value", func(t *testing.T) {
		w := serve(s, multipartRequest(t, map[string]string{"machine": "ref-profile", "vert": "1", "fill": "on"}, []byte{0x41}))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "fill:#000000")
	})

	t.Run("fractional vert truncates", func(t *testing.T) {
		w := serve(s, multipartRequest(t, map[string]string{"machine": "ibm-80", "vert": "2.7"}, []byte("AB")))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, strings.Count(w.Body.String(), "<polygon"))
	})
}

func TestGenerate_PNG(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, multipartRequest(t, map[string]string{"machine": "ref-profile", "vert": "1", "png": "png"}, []byte{0x41}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=punchcard-1700000000.png", w.Header().Get("Content-Disposition"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	// 1.0in x 3.75in at 50 DPI.
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 188, img.Bounds().Dy())
}

func TestGenerate_Calibration(t *testing.T) {
	s := newTestServer(t, nil)

	// Calibration ignores the machine, repeat and upload fields.
	w := serve(s, multipartRequest(t, map[string]string{"test": "test", "machine": "no-such-machine"}, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "attachment; filename=calibrate.svg", w.Header().Get("Content-Disposition"))
	assert.Equal(t, calibrate.Calibrate().Bytes(), w.Body.Bytes())
}

func TestGenerate_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name     string
		fields   map[string]string
		file     []byte
		wantCode int
		wantKind string
	}{
		{"unknown machine", map[string]string{"machine": "ibm-96", "vert": "1"}, []byte("A"), http.StatusBadRequest, "unknown_machine"},
		{"payload too large for cards", map[string]string{"machine": "ref-profile", "vert": "1"}, []byte("AB"), http.StatusUnprocessableEntity, "payload_too_large"},
		{"zero vert", map[string]string{"machine": "ibm-80", "vert": "0"}, []byte("A"), http.StatusBadRequest, "invalid_request"},
		{"text vert", map[string]string{"machine": "ibm-80", "vert": "many"}, []byte("A"), http.StatusBadRequest, "invalid_request"},
		{"vert above limit", map[string]string{"machine": "ibm-80", "vert": "51"}, []byte("A"), http.StatusBadRequest, "invalid_request"},
		{"missing vert", map[string]string{"machine": "ibm-80"}, []byte("A"), http.StatusBadRequest, "invalid_request"},
		{"missing machine", map[string]string{"vert": "1"}, []byte("A"), http.StatusBadRequest, "invalid_request"},
		{"missing upload", map[string]string{"machine": "ibm-80", "vert": "1"}, nil, http.StatusBadRequest, "invalid_request"},
		{"upload over limit", map[string]string{"machine": "ibm-80", "vert": "50"}, bytes.Repeat([]byte("A"), 8001), http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, multipartRequest(t, tt.fields, tt.file))
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Error.Kind)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestGenerate_UploadAtLimit(t *testing.T) {
	s := newTestServer(t, nil)

	// A full upload needs more than 50 cards, so check the limit with a
	// blank template.
	w := serve(s, multipartRequest(t, map[string]string{"machine": "ibm-80", "vert": "1", "blank": "blank"}, bytes.Repeat([]byte("A"), 8000)))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGenerate_NotMultipart(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/pcgenerator/", strings.NewReader("machine=ibm-80"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_LogsErrorKind(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServer(t, &logs)

	w := serve(s, multipartRequest(t, map[string]string{"machine": "ref-profile", "vert": "1"}, []byte("AB")))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	id := w.Header().Get(RequestIDHeader)
	assert.Contains(t, logs.String(), `"kind":"payload_too_large"`)
	assert.Contains(t, logs.String(), fmt.Sprintf(`"request_id":%q`, id))
	assert.Contains(t, logs.String(), `"msg":"request.done"`)
}

func TestCalculator(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("page", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/calculator/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "How many cards?")
	})

	t.Run("estimate", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/calculator/?machine=ibm-80&bytes=161", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var est engine.Estimate
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &est))
		assert.Equal(t, engine.Estimate{MachineID: "ibm-80", Encoding: "hollerith", Bytes: 161, BytesPerCard: 80, Cards: 3}, est)
	})

	t.Run("bad bytes", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/calculator/?machine=ibm-80&bytes=lots", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown machine", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/calculator/?machine=nope&bytes=1", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodDelete, "/pcgenerator/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown machine", model.UnknownMachine("resolve", "x"), http.StatusBadRequest},
		{"invalid request", model.InvalidRequest("encode", "vertical_repeat", "bad"), http.StatusBadRequest},
		{"payload too large", model.PayloadTooLarge("encode", 16, 12, 1), http.StatusUnprocessableEntity},
		{"upload too large", fmt.Errorf("%w: more", errUploadTooLarge), http.StatusRequestEntityTooLarge},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	s := newTestServer(t, nil)

	w := httptest.NewRecorder()
	s.writeError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret path /etc/x"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestParseRepeat(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 3 ", 3, false},
		{"2.9", 2, false},
		{"1e1", 10, false},
		{"0.5", 0, true},
		{"-2", 0, true},
		{"NaN", 0, true},
		{"", 0, true},
		{"1e40", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseRepeat(tt.raw)
			if tt.wantErr {
				assert.True(t, model.IsKind(err, model.KindInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
