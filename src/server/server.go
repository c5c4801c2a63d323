// Package server exposes the translation service over HTTP.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"screen-translator/src/apperr"
	"screen-translator/src/lexicon"
	"screen-translator/src/service"
)

const (
	maxBodyBytes    = 10 * 1024 * 1024 // 10 MB
	defaultSimilar  = 10
	maxSimilar      = 100
	shutdownTimeout = 5 * time.Second

	RequestIDHeader = "X-Request-ID"
)

// Backend is the set of service operations the server exposes.
type Backend interface {
	Recognize(ctx context.Context, png []byte) (service.Recognition, error)
	TranslateWith(ctx context.Context, text, source, target string) (service.TranslationResult, error)
	DictionaryLookup(ctx context.Context, word string) (lexicon.Entry, error)
	Similar(ctx context.Context, prefix string, limit int) ([]string, error)
	HealthCheck(ctx context.Context) service.Health
}

type Server struct {
	backend Backend
	addr    string
}

func New(backend Backend, addr string) *Server {
	return &Server{backend: backend, addr: addr}
}

// Handler returns the routed handler with request ids and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ocr", s.handleOCR)
	mux.HandleFunc("POST /translate", s.handleTranslate)
	mux.HandleFunc("POST /lookup", s.handleLookup)
	mux.HandleFunc("POST /similar", s.handleSimilar)
	mux.HandleFunc("GET /health", s.handleHealth)
	return withRequestID(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server: listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("Server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	var req OCRRequest
	if !decode(w, r, &req) {
		return
	}
	png, err := DecodeImage(req.Image)
	if err != nil {
		writeError(w, apperr.NewInvalidRequest(err.Error()))
		return
	}

	rec, err := s.backend.Recognize(r.Context(), png)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OCRResponse{Success: true, Recognition: rec})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.backend.TranslateWith(r.Context(), req.Text, req.Source, req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if !decode(w, r, &req) {
		return
	}
	entry, err := s.backend.DictionaryLookup(r.Context(), req.Word)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LookupResponse{Success: true, Entry: entry, Display: lexicon.Format(entry)})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req SimilarRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSimilar
	}
	if req.Limit > maxSimilar {
		req.Limit = maxSimilar
	}
	words, err := s.backend.Similar(r.Context(), req.Prefix, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if words == nil {
		words = []string{}
	}
	writeJSON(w, http.StatusOK, SimilarResponse{Success: true, Words: words})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.backend.HealthCheck(r.Context())
	status := http.StatusOK
	if !h.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Success: h.OK, Health: h})
}

// DecodeImage accepts raw base64 or a data URL.
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, errors.New("image is required")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}
	return data, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes),
				Code:  apperr.InvalidRequest,
			})
			return false
		}
		writeError(w, apperr.NewInvalidRequest("invalid JSON: "+err.Error()))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: apperr.CodeOf(err)}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		resp.Reason = ae.Reason
		switch {
		case ae.Message != "":
			resp.Error = ae.Message
		case ae.Err != nil:
			resp.Error = ae.Err.Error()
		}
	}
	writeJSON(w, apperr.Status(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Server: failed to write response: %v", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("Server: %s %s %d %v id=%s", r.Method, r.URL.Path, rec.status, time.Since(start), id)
	})
}
