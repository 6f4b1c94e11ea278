package api

import (
	"bytes"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"tabprep/adapters/file"
	"tabprep/domain/standardization"
	"tabprep/domain/table"
	"tabprep/internal/config"
	"tabprep/internal/errors"
	"tabprep/internal/importer"

	"github.com/go-chi/render"
)

// Response headers of /v1/pipeline
const (
	RunIDHeader   = "X-Run-Id"
	DroppedHeader = "X-Dropped-Columns"
	ImputedHeader = "X-Imputed-Columns"
)

// CodeTooManyRequests is the error code of a 429 response
const CodeTooManyRequests = "TOO_MANY_REQUESTS"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleProfile profiles the uploaded body and returns the report
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	t, err := s.readTable(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, s.profiler.Profile(t))
}

// handlePipeline imputes and standardizes the uploaded body and returns the
// result as CSV
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	cfg, err := pipelineFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.readTable(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	summary, err := s.pipeline.RunTable(r.Context(), t, cfg)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := file.WriteDelimited(&buf, summary.Table, ","); err != nil {
		s.fail(w, r, err)
		return
	}

	imputed := make([]string, len(summary.Imputed))
	for i, rec := range summary.Imputed {
		imputed[i] = rec.Column
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set(RunIDHeader, summary.RunID.String())
	w.Header().Set(DroppedHeader, strings.Join(summary.Dropped, ","))
	w.Header().Set(ImputedHeader, strings.Join(imputed, ","))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// headers are already sent, so the client only sees a short body
		s.logger.WarnContext(r.Context(), "writing response failed", "run_id", summary.RunID.String(), "error", err)
	}
}

// readTable parses the body using the format named by ?format=
func (s *Server) readTable(r *http.Request) (*table.Table, error) {
	q := r.URL.Query()
	kind := importer.Kind(q.Get("format"))
	if kind == "" {
		kind = importer.KindCSV
	}
	return s.importer.ImportReader(r.Context(), kind, r.Body, importer.ReaderOptions{
		Delimiter: q.Get("delimiter"),
		Encoding:  q.Get("encoding"),
		Sheet:     q.Get("sheet"),
	})
}

// pipelineFromQuery builds a run without plots or exports from
// ?threshold=, ?mode= and ?degenerate=
func pipelineFromQuery(r *http.Request) (*config.PipelineConfig, error) {
	q := r.URL.Query()
	disabled := false
	cfg := &config.PipelineConfig{
		Name: "api",
		Standardization: config.StandardizationConfig{
			Mode:       standardization.Mode(q.Get("mode")),
			Degenerate: standardization.DegeneratePolicy(q.Get("degenerate")),
		},
		Visualization: config.VisualizationConfig{Enabled: &disabled},
	}

	if raw := q.Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Newf(errors.CodeInvalidInput, "threshold %q is not a number", raw)
		}
		cfg.Imputation.Threshold = &v
	}
	if cfg.Standardization.Mode != "" {
		if _, err := standardization.ParseMode(string(cfg.Standardization.Mode)); err != nil {
			return nil, err
		}
	}
	policy, err := standardization.ParsePolicy(string(cfg.Standardization.Degenerate))
	if err != nil {
		return nil, err
	}
	cfg.Standardization.Degenerate = policy
	cfg.ApplyDefaults("")
	return cfg, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "error", err)
	}
	s.respond(w, r, status, errorResponse{Code: codeFor(err, status), Message: err.Error()})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// StatusFor maps an error to its HTTP status
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.CodeUnsupportedFormat, errors.CodeUnsupportedMode,
		errors.CodeInvalidInput, errors.CodeParseError:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeNoNumericColumns, errors.CodeDegenerateColumn:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func codeFor(err error, status int) string {
	if status == http.StatusRequestEntityTooLarge {
		return "PAYLOAD_TOO_LARGE"
	}
	if code := errors.GetCode(err); code != "UNKNOWN" {
		return code
	}
	return errors.CodeInternalError
}
