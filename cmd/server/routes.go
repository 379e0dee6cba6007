package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"podnplay/internal/handlers"
	"podnplay/internal/metrics"
	"podnplay/internal/middleware"
	"podnplay/web"
)

type App struct {
	handlers *handlers.Handlers
	auth     *middleware.Authenticator
	limiter  *middleware.RateLimiterMiddleware
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func (a *App) routes() *mux.Router {
	h := a.handlers
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(a.logger))

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.FileServer(http.FS(web.Static)))
	r.HandleFunc("/rss", h.GetRSSFeed).Methods(http.MethodGet)
	r.HandleFunc("/audio/{storageID:.+}", h.Audio).Methods(http.MethodGet)

	// Public pages see the user when a session exists.
	public := r.NewRoute().Subrouter()
	public.Use(a.auth.Session)
	public.HandleFunc("/", h.Discover).Methods(http.MethodGet)
	public.HandleFunc("/discover", h.Discover).Methods(http.MethodGet)
	public.HandleFunc("/api/podcasts", h.SearchPodcasts).Methods(http.MethodGet)
	public.HandleFunc("/podcasts/{id}", h.PodcastPage).Methods(http.MethodGet)
	public.HandleFunc("/sign-in", h.SignInPage).Methods(http.MethodGet)
	public.HandleFunc("/sign-in", h.SignIn).Methods(http.MethodPost)
	public.HandleFunc("/sign-out", h.SignOut).Methods(http.MethodPost)

	private := public.NewRoute().Subrouter()
	private.Use(middleware.RequireUser)
	private.HandleFunc("/create", h.CreatePage).Methods(http.MethodGet)
	private.HandleFunc("/create/mode", h.SetMode).Methods(http.MethodPost)
	private.Handle("/create/generate", a.limiter.Middleware(http.HandlerFunc(h.Generate))).Methods(http.MethodPost)
	private.HandleFunc("/create/upload", h.Upload).Methods(http.MethodPost)
	private.HandleFunc("/create/uploaded", h.AttachUpload).Methods(http.MethodPost)
	private.HandleFunc("/create/retry", h.RetryUpload).Methods(http.MethodPost)
	private.HandleFunc("/create/cancel", h.Cancel).Methods(http.MethodPost)
	private.HandleFunc("/podcasts", h.SubmitPodcast).Methods(http.MethodPost)
	private.HandleFunc("/api/workflow", h.WorkflowState).Methods(http.MethodGet)
	private.Handle("/api/upload-url", a.limiter.Middleware(http.HandlerFunc(h.UploadURL))).Methods(http.MethodPost)

	return r
}
