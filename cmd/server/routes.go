package main

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/internal/shares"
	"github.com/docvault/docvault/internal/transform"
	"github.com/docvault/docvault/internal/trash"
	"github.com/docvault/docvault/internal/versions"
	"github.com/docvault/docvault/pkg/middleware"
	"github.com/docvault/docvault/pkg/routes"
)

func (app *Application) routes() http.Handler {
	maxUpload := app.config.Storage.MaxUploadSizeBytes()

	documentHandler := documents.NewHandler(app.documents, app.store, app.auditor, app.logger, app.config.Pagination, maxUpload)
	versionHandler := versions.NewHandler(app.versions, app.auditor, app.logger, maxUpload)
	shareHandler := shares.NewHandler(app.shares, app.auditor, app.logger)
	trashHandler := trash.NewHandler(app.trash, app.auditor, app.logger, app.config.Pagination)
	transformHandler := transform.NewHandler(app.pipeline, app.versions, app.auditor, app.logger)
	auditHandler := audit.NewHandler(app.auditor, app.logger, app.config.Pagination)

	api := http.NewServeMux()
	routes.Register(api, "/api",
		documentHandler.Routes(),
		versionHandler.Routes(),
		shareHandler.Routes(),
		trashHandler.Routes(),
		transformHandler.Routes(),
		transformHandler.MergeRoutes(),
		auditHandler.Routes(),
	)

	authenticate := identity.Middleware(identity.NewHeaderResolver(identity.DefaultHeader))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Share access is token-scoped and stays outside the identity gate.
	routes.Register(mux, "", shareHandler.PublicRoutes())

	mux.Handle("/api/", authenticate(api))

	return app.enableCORS(middleware.TrimSlash()(mux))
}

func (app *Application) enableCORS(next http.Handler) http.Handler {
	cors := app.config.CORS

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cors.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if slices.Contains(cors.Origins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		if len(cors.AllowedMethods) > 0 {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(cors.AllowedMethods, ", "))
		}

		if len(cors.AllowedHeaders) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(cors.AllowedHeaders, ", "))
		}

		if cors.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if cors.MaxAge > 0 {
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cors.MaxAge))
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
