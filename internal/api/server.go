// Package api exposes the conversion pipeline over HTTP.
//
// The server wraps a pipeline.Runner, so API requests share cached grids
// and artifacts with CLI runs against the same backend.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/pixelstack/pkg/buildinfo"
	"github.com/matzehuels/pixelstack/pkg/convert"
	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/pipeline"
)

// maxUploadBytes bounds request bodies. Source images are photos at most,
// not gigapixel scans.
const maxUploadBytes = 32 << 20

// Server handles HTTP requests for image conversion.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// NewServer creates an API server around a pipeline runner.
func NewServer(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/methods", s.handleMethods)
		r.Post("/convert", s.handleConvert)
	})
	return r
}

// requestID attaches a UUID to each request for log correlation.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(
			log.WithContext(r.Context(), s.logger.With("request_id", id)),
		))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// methodInfo describes one conversion method for API discovery.
type methodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"methods": []methodInfo{
			{Name: "height", Description: "brightness mapped to column height"},
			{Name: "color", Description: "hue mapped to depth layer"},
			{Name: "structure", Description: "edge distance mapped to depth"},
		},
		"defaults": map[string]int{
			"resolution":     convert.DefaultResolution,
			"max_height":     convert.DefaultMaxHeight,
			"layers":         convert.DefaultLayers,
			"depth_levels":   convert.DefaultDepthLevels,
			"edge_threshold": convert.DefaultEdgeThreshold,
		},
	})
}

// convertResponse is the JSON shape of a successful conversion.
// Artifact bytes serialize as base64.
type convertResponse struct {
	RequestID string                  `json:"request_id"`
	Grids     map[string]gridResponse `json:"grids"`
	Stats     statsResponse           `json:"stats"`
	Cache     cacheResponse           `json:"cache"`
}

type gridResponse struct {
	Hash      string            `json:"hash"`
	Voxels    int               `json:"voxels"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
}

type statsResponse struct {
	SourceWidth   int   `json:"source_width"`
	SourceHeight  int   `json:"source_height"`
	VoxelCount    int   `json:"voxel_count"`
	LoadMillis    int64 `json:"load_ms"`
	ConvertMillis int64 `json:"convert_ms"`
	RenderMillis  int64 `json:"render_ms"`
}

type cacheResponse struct {
	ConvertHit bool `json:"convert_hit"`
	RenderHit  bool `json:"render_hit"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	data, err := readImage(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts, err := optionsFromRequest(r, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Logger = logger

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		logger.Error("conversion failed", "error", err)
		s.writeError(w, err)
		return
	}

	resp := convertResponse{
		RequestID: w.Header().Get("X-Request-ID"),
		Grids:     make(map[string]gridResponse, len(result.Grids)),
		Stats: statsResponse{
			SourceWidth:   result.Stats.SourceWidth,
			SourceHeight:  result.Stats.SourceHeight,
			VoxelCount:    result.Stats.VoxelCount,
			LoadMillis:    result.Stats.LoadTime.Milliseconds(),
			ConvertMillis: result.Stats.ConvertTime.Milliseconds(),
			RenderMillis:  result.Stats.RenderTime.Milliseconds(),
		},
		Cache: cacheResponse{
			ConvertHit: result.CacheInfo.ConvertHit,
			RenderHit:  result.CacheInfo.RenderHit,
		},
	}
	for name, g := range result.Grids {
		resp.Grids[name] = gridResponse{
			Hash:      result.GridHashes[name],
			Voxels:    g.Len(),
			Artifacts: result.Artifacts[name],
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// readImage extracts the uploaded image from either a multipart form field
// named "image" or a raw request body.
func readImage(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "parse upload")
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "missing image field")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "read upload")
		}
		return data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "read body")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "request body is empty")
	}
	return data, nil
}

// optionsFromRequest builds pipeline options from query parameters.
func optionsFromRequest(r *http.Request, data []byte) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		ImageData: data,
		Selector:  q.Get("method"),
		Shell:     q.Get("shell") == "true",
		Refresh:   q.Get("refresh") == "true",
	}
	if formats := q.Get("formats"); formats != "" {
		opts.Formats = strings.Split(formats, ",")
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"resolution", &opts.Resolution},
		{"max_height", &opts.MaxHeight},
		{"layers", &opts.Layers},
		{"depth_levels", &opts.DepthLevels},
		{"edge_threshold", &opts.EdgeThreshold},
		{"max_points", &opts.MaxPoints},
	}
	for _, p := range ints {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.Options{}, errors.New(errors.ErrCodeInvalidConfig, "%s must be an integer, got %q", p.name, raw)
		}
		*p.dst = v
	}
	return opts, nil
}

// errorResponse is the JSON shape of a failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidMethod, errors.ErrCodeInvalidImage,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidGrid, errors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}
