package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"clearance/internal/domain"
	"clearance/internal/ports"
	"clearance/internal/rawtree"
	"clearance/internal/services/normalizer"
	"clearance/internal/services/rules"
)

const maxBodyBytes = 1 << 20

// Options configure the transport. Zero values are usable.
type Options struct {
	// Mode is reported by /healthz: "sample" or "store".
	Mode        string
	CORSOrigins []string
	Log         *zap.Logger
}

// Server exposes submissions and rule management over HTTP.
type Server struct {
	submissions ports.Submissions
	rules       ports.Rules
	opts        Options
	log         *zap.Logger
	validate    *validator.Validate
}

func New(submissions ports.Submissions, rules ports.Rules, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{
		submissions: submissions,
		rules:       rules,
		opts:        opts,
		log:         opts.Log.Named("http"),
		validate:    validator.New(),
	}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !slices.Contains(s.opts.CORSOrigins, "*"),
		MaxAge:           300,
	}))

	r.Get("/healthz", s.getHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/submissions", s.listSubmissions)
		r.Get("/submissions/{id}", s.getSubmission)
		r.Get("/submissions/{id}/compliance", s.getCompliance)
		r.Get("/rules/restricted-codes", s.getRules)
		r.Put("/rules/restricted-codes", s.updateRules)
		r.Post("/rules/restricted-codes", s.updateRules)
		r.Post("/rules/impact", s.postImpact)
	})
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	mode := s.opts.Mode
	if mode == "" {
		mode = "sample"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": mode})
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	var (
		limit    *int
		status   *string
		industry *string
		broker   *string
	)
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dest any
	}{
		{"limit", &limit},
		{"status", &status},
		{"industryCode", &industry},
		{"broker", &broker},
	} {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
			s.writeError(w, r, badRequest("invalid query parameter "+p.name))
			return
		}
	}

	filter := domain.ListFilter{}
	if limit != nil {
		if *limit < 0 {
			s.writeError(w, r, badRequest("limit must not be negative"))
			return
		}
		filter.Limit = *limit
	}
	if status != nil && strings.TrimSpace(*status) != "" {
		st, ok := normalizer.ParseSubmissionStatus(*status)
		if !ok {
			s.writeError(w, r, badRequest("unknown status "+*status))
			return
		}
		filter.OverallStatus = st
	}
	if industry != nil {
		filter.IndustryCode = *industry
	}
	if broker != nil {
		filter.BrokerDomain = *broker
	}

	list, err := s.submissions.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	detail, err := s.submissions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) getCompliance(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	report, err := s.submissions.Compliance(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) getRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rules.Config())
}

func (s *Server) updateRules(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readTree(w, r)
	if !ok {
		return
	}
	cfg := s.rules.Update(r.Context(), rules.PatchFromTree(body))
	writeJSON(w, http.StatusOK, cfg)
}

type impactRequest struct {
	Limit int `validate:"gte=0,lte=100"`
}

func (s *Server) postImpact(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readTree(w, r)
	if !ok {
		return
	}
	var req impactRequest
	if n, ok := body.Field("limit").AsNumber(); ok {
		req.Limit = int(n)
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, badRequest("limit must be between 0 and 100"))
		return
	}
	res, err := s.submissions.Impact(r.Context(), rules.PatchFromTree(body), req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil || strings.TrimSpace(id) == "" {
		s.writeError(w, r, badRequest("invalid submission id"))
		return "", false
	}
	return id, true
}

// readTree decodes a JSON request body. An empty body reads as an empty
// object; anything that is not JSON is a 400.
func (s *Server) readTree(w http.ResponseWriter, r *http.Request) (rawtree.Value, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, badRequest("request body too large or unreadable"))
		return rawtree.Value{}, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return rawtree.Object(nil), true
	}
	body, err := rawtree.Parse(data)
	if err != nil {
		s.writeError(w, r, badRequest("request body is not valid JSON"))
		return rawtree.Value{}, false
	}
	return body, true
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{status: http.StatusBadRequest, msg: msg} }

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var body errorBody
	status := http.StatusInternalServerError
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		status, body.Error.Code, body.Error.Message = reqErr.status, "bad_request", reqErr.msg
	case errors.Is(err, domain.ErrNotFound):
		status, body.Error.Code, body.Error.Message = http.StatusNotFound, "not_found", domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status, body.Error.Code, body.Error.Message = http.StatusBadGateway, "upstream_unavailable", domain.ErrUpstreamUnavailable.Error()
	default:
		body.Error.Code, body.Error.Message = "internal", "internal server error"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
