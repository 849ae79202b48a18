// pkg/server/server.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/pipeline"
)

// Server wraps the pipeline with the HTTP control surface:
//
//	GET  /scripts       list runnable stages
//	POST /run           run one stage by name
//	GET  /output/{file} return one output file's content
//	GET  /output-files  list output files
type Server struct {
	pipe      *pipeline.Pipeline
	outputDir string
	origins   []string
	logger    *zap.Logger
}

// New creates a server over the given pipeline and output directory.
func New(pipe *pipeline.Pipeline, outputDir string, origins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipe:      pipe,
		outputDir: outputDir,
		origins:   origins,
		logger:    logger,
	}
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/scripts", s.handleScripts)
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/output/", s.handleOutputFile)
	mux.HandleFunc("/output-files", s.handleOutputFiles)

	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)
}

// ListenAndServe blocks serving the handler on the given port.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scripts": s.pipe.Stages()})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Script string `json:"script"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Script == "" {
		writeError(w, http.StatusBadRequest, "invalid script name")
		return
	}

	known := false
	for _, stage := range s.pipe.Stages() {
		if stage.Name == body.Script {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "script not found")
		return
	}

	s.logger.Info("running stage via API", zap.String("stage", body.Script))
	result, err := s.pipe.RunStage(r.Context(), body.Script)

	// Mirror a process exit: 0 on success, 1 on any failure, with the
	// result standing in for captured output.
	returncode := 0
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"result":     result,
			"stderr":     err.Error(),
			"returncode": 1,
		})
		return
	}
	if !result.Success {
		returncode = 1
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":     result,
		"stderr":     "",
		"returncode": returncode,
	})
}

func (s *Server) handleOutputFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/output/")
	path, err := s.resolveOutput(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "reading file failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": string(content)})
}

func (s *Server) handleOutputFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string][]string{"files": {}})
		return
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"files": files})
}

// resolveOutput maps a requested file name into the output directory,
// rejecting anything that would escape it.
func (s *Server) resolveOutput(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", errors.New("invalid file name")
	}
	base, err := filepath.Abs(s.outputDir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(base, filepath.Clean(name))
	if filepath.Dir(path) != base {
		return "", errors.New("path escapes output directory")
	}
	return path, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
