package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/raster"
	"github.com/mmr-tortoise/cardpunch/internal/render"
)

// formOverhead is the multipart framing allowed on top of the payload.
const formOverhead = 64 << 10

// pageData feeds the HTML templates.
type pageData struct {
	Machines  []model.MachineProfile
	MaxUpload int64
	MaxRepeat int
}

func (s *Server) page() pageData {
	return pageData{
		Machines:  s.engine.Registry().Profiles(),
		MaxUpload: s.cfg.MaxUpload,
		MaxRepeat: s.cfg.MaxRepeat,
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, s.page()); err != nil {
		s.writeError(w, r, fmt.Errorf("failed to render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "index.html")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// generateForm is a parsed POST /pcgenerator/ submission.
type generateForm struct {
	calibrate bool
	blank     bool
	fill      bool
	png       bool
	machine   string
	repeat    int
	payload   []byte
}

// parseGenerateForm reads the multipart form. Checkbox fields count as set
// only when they carry their own name as value, as the form sends them.
func (s *Server) parseGenerateForm(r *http.Request) (generateForm, error) {
	const op = "form"

	if err := r.ParseMultipartForm(s.cfg.MaxUpload + formOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return generateForm{}, err
		}
		return generateForm{}, model.InvalidRequest(op, "form", err.Error())
	}

	f := generateForm{
		calibrate: r.FormValue("test") == "test",
		blank:     r.FormValue("blank") == "blank",
		fill:      r.FormValue("fill") == "fill",
		png:       r.FormValue("png") == "png",
		machine:   strings.TrimSpace(r.FormValue("machine")),
	}
	if f.calibrate {
		return f, nil
	}

	if f.machine == "" {
		return f, model.InvalidRequest(op, "machine", "is required")
	}

	repeat, err := parseRepeat(r.FormValue("vert"))
	if err != nil {
		return f, err
	}
	if repeat > s.cfg.MaxRepeat {
		return f, model.InvalidRequest(op, "vertical_repeat", fmt.Sprintf("must be at most %d, got %d", s.cfg.MaxRepeat, repeat))
	}
	f.repeat = repeat

	file, _, err := r.FormFile("upfile")
	if err != nil {
		return f, model.InvalidRequest(op, "upfile", "is required")
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUpload+1))
	if err != nil {
		return f, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(payload)) > s.cfg.MaxUpload {
		return f, fmt.Errorf("%w: more than %d bytes", errUploadTooLarge, s.cfg.MaxUpload)
	}
	f.payload = payload
	return f, nil
}

// parseRepeat reads the vert field. The form posts a number that may carry
// a fractional part; it is truncated toward zero.
func parseRepeat(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, model.InvalidRequest("form", "vertical_repeat", "is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, model.InvalidRequest("form", "vertical_repeat", fmt.Sprintf("%q is not a number", raw))
	}
	if v < 1 {
		return 0, model.InvalidRequest("form", "vertical_repeat", fmt.Sprintf("must be at least 1, got %s", raw))
	}
	if v > math.MaxInt32 {
		return 0, model.InvalidRequest("form", "vertical_repeat", fmt.Sprintf("%s is too large", raw))
	}
	return int(v), nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload+formOverhead)
	log := s.logFrom(r.Context())

	form, err := s.parseGenerateForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		doc  *render.Document
		base string
	)
	if form.calibrate {
		log.Debug("generate.calibrate")
		doc, err = s.engine.Calibrate("")
		base = "calibrate"
	} else {
		log.Debug("generate.payload",
			"machine", form.machine,
			"repeat", form.repeat,
			"bytes", len(form.payload),
			"blank", form.blank,
			"fill", form.fill,
		)
		doc, err = s.engine.Generate(model.EncodingRequest{
			Payload:        form.payload,
			MachineID:      form.machine,
			VerticalRepeat: form.repeat,
			Blank:          form.blank,
			SolidFill:      form.fill,
		})
		base = fmt.Sprintf("punchcard-%d", s.cfg.Now().Unix())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		body        bytes.Buffer
		contentType string
		ext         string
	)
	if form.png {
		err = raster.WritePNG(&body, doc, s.cfg.DPI)
		contentType, ext = "image/png", "png"
	} else {
		err = doc.WriteSVG(&body)
		contentType, ext = "image/svg+xml", "svg"
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", base, ext))
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	_, _ = body.WriteTo(w)
}

// handleCalculator serves the calculator page, or a JSON estimate when a
// machine is given.
func (s *Server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	machineID := strings.TrimSpace(q.Get("machine"))
	if machineID == "" {
		s.renderPage(w, r, "calculator.html")
		return
	}

	n, err := strconv.Atoi(strings.TrimSpace(q.Get("bytes")))
	if err != nil {
		s.writeError(w, r, model.InvalidRequest("calculator", "bytes", fmt.Sprintf("%q is not an integer", q.Get("bytes"))))
		return
	}

	est, err := s.engine.Estimate(machineID, n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}
