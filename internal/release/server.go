package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	vibeerrors "github.com/zlink-cloudtech/spec-kit/internal/errors"
)

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 512 << 20

// Asset is the GitHub-compatible release asset shape.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release is the GitHub-compatible /latest payload. The tag is always
// "latest": this server keeps one rolling release.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Server is the HTTP layer over a Service.
type Server struct {
	svc    *Service
	token  string
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer wires the routes. token guards the mutating routes.
func NewServer(svc *Service, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, token: token, logger: logger, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /latest", s.handleLatest)
	s.mux.HandleFunc("GET /assets/{name}", s.handleDownload)
	s.mux.HandleFunc("DELETE /assets/{name}", s.requireAuth(s.handleDelete))
	s.mux.HandleFunc("POST /upload", s.requireAuth(s.handleUpload))
	s.mux.HandleFunc("GET /packages", s.handlePackages)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	return s
}

// ServeHTTP implements http.Handler with request logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requireAuth enforces the Bearer token on mutating routes.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != s.token {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeError(w, vibeerrors.ErrAuthInvalid())
			return
		}
		next(w, r)
	}
}

// writeError renders a structured error as {"detail": ...} with the code's
// HTTP status, matching the original API's error shape.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := err.Error()

	var verr *vibeerrors.VibeError
	if errors.As(err, &verr) {
		status = verr.HTTPStatus()
		detail = verr.What
		if verr.Why != "" {
			detail += ": " + verr.Why
		}
	}

	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

// baseURL reconstructs the externally visible URL prefix for download links.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	packages, err := s.svc.List()
	if err != nil {
		s.writeError(w, err)
		return
	}

	base := baseURL(r)
	assets := make([]Asset, 0, len(packages))
	for _, p := range packages {
		assets = append(assets, Asset{
			Name:               p.Name,
			Size:               p.Size,
			BrowserDownloadURL: fmt.Sprintf("%s/assets/%s", base, p.Name),
		})
	}

	s.writeJSON(w, http.StatusOK, Release{TagName: "latest", Assets: assets})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path, err := s.svc.Open(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.PathValue("name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	overwrite := r.URL.Query().Get("overwrite") == "true"

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, vibeerrors.ErrPackageInvalid("Malformed multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, vibeerrors.ErrPackageInvalid("Missing file field"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, err)
		return
	}

	meta, err := s.svc.Upload(header.Filename, content, overwrite)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Retention runs after the response; the upload itself already
	// succeeded.
	go s.svc.Cleanup()

	s.writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	packages, err := s.svc.List()
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Query param wins over the Accept header.
	wantHTML := false
	switch r.URL.Query().Get("format") {
	case "html":
		wantHTML = true
	case "json":
		wantHTML = false
	default:
		wantHTML = strings.Contains(r.Header.Get("Accept"), "text/html")
	}

	if !wantHTML {
		s.writeJSON(w, http.StatusOK, packages)
		return
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
<title>Release Server Packages</title>
<style>
body { font-family: sans-serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; }
ul { list-style: none; padding: 0; }
li { padding: 0.5rem; border-bottom: 1px solid #eee; display: flex; justify-content: space-between; }
a { text-decoration: none; color: #0366d6; font-weight: bold; }
.meta { color: #666; font-size: 0.9em; }
</style>
</head>
<body>
<h1>Available Packages</h1>
<ul>
`)
	if len(packages) == 0 {
		b.WriteString("<li>No packages found.</li>\n")
	}
	base := baseURL(r)
	for _, p := range packages {
		fmt.Fprintf(&b, `<li><a href="%s/assets/%s">%s</a> <span class="meta">%d bytes | %s</span></li>`+"\n",
			base, p.Name, p.Name, p.Size, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	b.WriteString("</ul>\n</body>\n</html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, b.String())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "OK")
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := s.svc.List(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "Service Unavailable")
		return
	}
	fmt.Fprint(w, "OK")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
