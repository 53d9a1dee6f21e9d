package host

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// APIError is the error half of the HTTP envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope wraps every HTTP answer.
type Envelope struct {
	OK    bool           `json:"ok"`
	Data  map[string]any `json:"data,omitempty"`
	Error *APIError      `json:"error,omitempty"`
}

type commandRequest struct {
	Comando string         `json:"comando"`
	Payload map[string]any `json:"payload"`
}

type httpError struct {
	status int
	err    APIError
}

type apiHandler func(r *http.Request) (map[string]any, *httpError)

// Server exposes a Host over HTTP.
type Server struct {
	host    *Host
	log     *zap.Logger
	limiter *rate.Limiter
}

// NewServer wraps h. A non-positive limit disables rate limiting.
func NewServer(h *Host, log *zap.Logger, limit float64, burst int) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{host: h, log: log}
	if limit > 0 {
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/comando", s.wrap(s.commandAPI))
	mux.HandleFunc("GET /api/animales/{caravana}", s.wrap(s.animalAPI))
	mux.HandleFunc("GET /api/comandos", s.wrap(s.commandsAPI))
	return mux
}

func (s *Server) wrap(h apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get(headerRequestID)
		w.Header().Set("Content-Type", "application/json")
		if reqID != "" {
			w.Header().Set(headerRequestID, reqID)
		}

		var (
			data   map[string]any
			apiErr *httpError
		)
		if s.limiter != nil && !s.limiter.Allow() {
			apiErr = &httpError{status: http.StatusTooManyRequests, err: APIError{Code: "rate_limited", Message: "too many requests"}}
		} else {
			data, apiErr = h(r)
		}

		status := http.StatusOK
		env := Envelope{OK: true, Data: data}
		if apiErr != nil {
			status = apiErr.status
			env = Envelope{OK: false, Error: &apiErr.err}
		}
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", reqID),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(env)
	}
}

func (s *Server) commandAPI(r *http.Request) (map[string]any, *httpError) {
	var req commandRequest
	if apiErr := readJSON(r, &req); apiErr != nil {
		return nil, apiErr
	}
	if strings.TrimSpace(req.Comando) == "" {
		return nil, &httpError{status: http.StatusBadRequest, err: APIError{Code: "missing_command", Message: "comando requerido"}}
	}
	out, err := s.host.Dispatch(r.Context(), req.Comando, req.Payload)
	if err != nil {
		return nil, &httpError{status: http.StatusServiceUnavailable, err: APIError{Code: "cancelled", Message: err.Error()}}
	}
	return out, nil
}

func (s *Server) animalAPI(r *http.Request) (map[string]any, *httpError) {
	out, err := s.host.AnimalSheet(r.Context(), r.PathValue("caravana"))
	if err != nil {
		return nil, &httpError{status: http.StatusServiceUnavailable, err: APIError{Code: "cancelled", Message: err.Error()}}
	}
	return out, nil
}

func (s *Server) commandsAPI(*http.Request) (map[string]any, *httpError) {
	ids := s.host.Commands()
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = id
	}
	return map[string]any{"comandos": list}, nil
}

func readJSON(r *http.Request, dst any) *httpError {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &httpError{status: http.StatusRequestEntityTooLarge, err: APIError{Code: "payload_too_large", Message: "request body too large"}}
		}
		return &httpError{status: http.StatusBadRequest, err: APIError{Code: "bad_json", Message: "bad json"}}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &httpError{status: http.StatusBadRequest, err: APIError{Code: "bad_json", Message: "bad json"}}
	}
	return nil
}
