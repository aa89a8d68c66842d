// Package repohttp serves the repository protocol over HTTP: the package
// document, asset manifests, asset bytes, and multipart asset receive. It is
// the serving counterpart of pkg/repo's client, backed by a plain directory.
package repohttp

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/repo"
)

const (
	// DocumentFile is the repository document within a served directory.
	DocumentFile = "document.json"
	// AssetsDir holds the repository's asset files.
	AssetsDir = "assets"

	maxUploadMemory = 32 << 20
)

// Server serves one repository directory.
type Server struct {
	root   string
	logger *log.Logger
}

// NewServer creates a Server over root, creating the directory layout when
// missing. A missing document is served as an empty repository.
func NewServer(root string, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := os.MkdirAll(filepath.Join(root, AssetsDir), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "preparing repository directory %q", root)
	}
	return &Server{root: root, logger: logger}, nil
}

// Root returns the served directory.
func (s *Server) Root() string { return s.root }

// Handler returns the protocol router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/", s.handleRoot)
	r.Get("/assets/{name}", s.handleAsset)
	r.Post("/", s.handleUpload)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery,
			"duration", time.Since(start))
	})
}

// handleRoot serves the document, or the asset manifest when the request
// carries the assets query.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("assets") {
		entries, err := s.manifest()
		if err != nil {
			s.fail(w, err)
			return
		}
		s.writeJSON(w, entries)
		return
	}

	doc, err := s.Document()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, doc)
}

// Document loads the repository document from disk.
func (s *Server) Document() (*repo.Document, error) {
	data, err := os.ReadFile(filepath.Join(s.root, DocumentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &repo.Document{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "reading document")
	}
	var doc repo.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "decoding document")
	}
	return &doc, nil
}

// manifest hashes every asset file in the served directory.
func (s *Server) manifest() ([]repo.ManifestEntry, error) {
	dir := filepath.Join(s.root, AssetsDir)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "listing assets")
	}
	entries := make([]repo.ManifestEntry, 0, len(files))
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "hashing asset %q", f.Name())
		}
		entries = append(entries, repo.ManifestEntry{
			FileName: f.Name(),
			FileHash: repo.HashBytes(data),
			V:        1,
		})
	}
	return entries, nil
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errors.ValidateAssetName(name); err != nil {
		http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
		return
	}
	data, err := os.ReadFile(filepath.Join(s.root, AssetsDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "malformed multipart body", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		http.Error(w, "no file fields", http.StatusBadRequest)
		return
	}

	for _, fh := range files {
		if err := s.storeAsset(fh); err != nil {
			s.logger.Warn("rejected asset", "name", fh.Filename, "err", err)
			http.Error(w, errors.UserMessage(err), http.StatusBadRequest)
			return
		}
	}
	s.logger.Info("stored assets", "count", len(files))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeAsset(fh *multipart.FileHeader) error {
	if err := errors.ValidateAssetName(fh.Filename); err != nil {
		return err
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransfer, err, "opening upload %q", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransfer, err, "reading upload %q", fh.Filename)
	}
	path := filepath.Join(s.root, AssetsDir, fh.Filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeTransfer, err, "storing %q", fh.Filename)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response write failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "err", err)
	http.Error(w, errors.UserMessage(err), http.StatusInternalServerError)
}
