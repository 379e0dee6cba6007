package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"podnplay/internal/discovery"
	"podnplay/internal/middleware"
	"podnplay/internal/nav"
	"podnplay/internal/notify"
	"podnplay/internal/storage"
	"podnplay/internal/workflow"
	"podnplay/web"
)

var pages = []string{"discover.html", "create.html", "podcast.html", "signin.html"}

// Store is the part of the object storage the web handlers use.
type Store interface {
	GenerateUploadURL(ctx context.Context) (storage.Target, error)
	URL(ctx context.Context, storageID string) (string, error)
}

type Options struct {
	Discovery *discovery.Service
	Drafts    *workflow.Registry
	Store     Store
	Auth      *middleware.Authenticator
	Logger    *zap.Logger
	BaseURL   string

	// MaxUploadBytes limits multipart uploads. Zero means 200 MiB.
	MaxUploadBytes int64
}

type Handlers struct {
	templates map[string]*template.Template
	discovery *discovery.Service
	drafts    *workflow.Registry
	store     Store
	auth      *middleware.Authenticator
	validate  *validator.Validate
	logger    *zap.Logger
	baseURL   string
	maxUpload int64
}

func New(opts Options) (*Handlers, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = maxUploadBytes
	}
	return &Handlers{
		templates: templates,
		discovery: opts.Discovery,
		drafts:    opts.Drafts,
		store:     opts.Store,
		auth:      opts.Auth,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
		baseURL:   opts.BaseURL,
		maxUpload: maxUpload,
	}, nil
}

// loadTemplates parses every page together with the shared layout.
func loadTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.ParseFS(web.Templates, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = t
	}
	return templates, nil
}

type page struct {
	Title   string
	Sidebar nav.Sidebar
	Notices []notify.Notification
	Content interface{}
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name, title string, content interface{}, notices []notify.Notification) {
	t, ok := h.templates[name]
	if !ok {
		h.logger.Error("unknown template", zap.String("template", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	_, signedIn := middleware.UserFromContext(r.Context())
	data := page{
		Title:   title,
		Sidebar: nav.Build(r.URL.Path, signedIn),
		Notices: notices,
		Content: content,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json"
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

// Discover renders the podcast catalog, filtered by the search query parameter.
func (h *Handlers) Discover(w http.ResponseWriter, r *http.Request) {
	view := h.discovery.Search(r.Context(), r.URL.Query().Get("search"))
	status := http.StatusOK
	if view.State == discovery.StateError {
		status = http.StatusServiceUnavailable
	}
	h.render(w, r, status, "discover.html", "Discover", view, nil)
}

// SearchPodcasts is the JSON form of Discover.
func (h *Handlers) SearchPodcasts(w http.ResponseWriter, r *http.Request) {
	view := h.discovery.Search(r.Context(), r.URL.Query().Get("search"))
	status := http.StatusOK
	if view.State == discovery.StateError {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, view)
}
