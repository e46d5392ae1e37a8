// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/maruel/wcstore/internal/auth"
	apierrors "github.com/maruel/wcstore/internal/errors"
	"github.com/maruel/wcstore/internal/media"
	"github.com/maruel/wcstore/internal/server/handlers"
	"github.com/maruel/wcstore/internal/server/ipgeo"
	"github.com/maruel/wcstore/internal/server/ratelimit"
	"github.com/maruel/wcstore/internal/storage"
	"github.com/maruel/wcstore/internal/storage/history"
	"github.com/maruel/wcstore/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services holds the services the handlers are built from.
type Services struct {
	Documents     *storage.DocumentService
	Drafts        *storage.DraftService
	Search        *storage.SearchService
	Announcements *storage.AnnouncementService
	Book          *storage.BookService
	Tokens        *auth.TokenService
	Media         *media.Store
	History       *history.Repo  // may be nil
	Geo           *ipgeo.Checker // may be nil
}

// Config holds the server settings.
type Config struct {
	Version    string
	RateLimits *ratelimit.Config
	// Gatherer is exposed at /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures the HTTP router.
//
// Public routes live under /api, admin routes require a bearer token and
// stored images are served at /media/images/.
func NewRouter(svc *Services, cfg *Config) http.Handler {
	mux := &http.ServeMux{}
	limits := cfg.RateLimits
	if limits == nil {
		limits = ratelimit.DefaultConfig()
	}
	admin := RequireAdmin(svc.Tokens)

	hh := handlers.NewHealthHandler(cfg.Version)
	authh := handlers.NewAuthHandler(svc.Tokens, svc.Geo)
	ch := handlers.NewContentHandler(svc.Documents)
	dh := handlers.NewDraftHandler(svc.Drafts)
	sh := handlers.NewSearchHandler(svc.Search)
	ah := handlers.NewAnnouncementHandler(svc.Announcements)
	bh := handlers.NewBookHandler(svc.Book)
	schemah := handlers.NewSchemaHandler()
	histh := handlers.NewHistoryHandler(svc.History)
	uh := handlers.NewUploadHandler(svc.Media)

	// Public endpoints
	mux.Handle("GET /api/health", Wrap(hh.Health))
	mux.Handle("GET /api/public/{collection}", Wrap(ch.ListPublic))
	mux.Handle("GET /api/search", limits.Search.Middleware(Wrap(sh.Search)))
	mux.Handle("GET /api/announcement", Wrap(ah.Get))
	mux.Handle("GET /api/book/content", Wrap(bh.Content))
	mux.Handle("GET /api/schema/{name}", Wrap(schemah.Get))
	mux.HandleFunc("GET /media/images/{name}", uh.ServeImage)

	// Auth endpoints
	mux.Handle("POST /api/auth/login", limits.Login.Middleware(Wrap(authh.Login)))
	mux.Handle("GET /api/auth/verify", admin(Wrap(authh.Verify)))

	// Documents
	mux.Handle("GET /api/admin/history", admin(Wrap(histh.List)))
	mux.Handle("GET /api/admin/{collection}", admin(Wrap(ch.List)))
	mux.Handle("POST /api/admin/{collection}", admin(Wrap(ch.Create)))
	mux.Handle("GET /api/admin/{collection}/{id}", admin(Wrap(ch.Get)))
	mux.Handle("PUT /api/admin/{collection}/{id}", admin(Wrap(ch.Update)))
	mux.Handle("DELETE /api/admin/{collection}/{id}", admin(Wrap(ch.Delete)))

	// Drafts
	mux.Handle("GET /api/drafts/{collection}", admin(Wrap(dh.Get)))
	mux.Handle("POST /api/drafts/{collection}", admin(Wrap(dh.Save)))
	mux.Handle("POST /api/drafts/{collection}/publish", admin(Wrap(dh.Publish)))

	// Announcement
	mux.Handle("GET /api/announcement/admin", admin(Wrap(ah.GetAdmin)))
	mux.Handle("PUT /api/announcement", admin(Wrap(ah.Update)))

	// Images
	mux.Handle("POST /api/upload/image", admin(limits.Upload.Middleware(http.HandlerFunc(uh.UploadImage))))
	mux.Handle("POST /api/upload/images", admin(limits.Upload.Middleware(http.HandlerFunc(uh.UploadImages))))
	mux.Handle("DELETE /api/upload/image/{filename}", admin(Wrap(uh.DeleteImage)))

	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(r.Context(), w, apierrors.NotFound("route"))
	})

	return RequestContext(CORS(mux))
}
