package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerSnapshotRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /fixtures", handler.ListUpcomingFixtures)
	mux.HandleFunc("GET /fixtures/finished", handler.ListFinishedFixtures)
	mux.HandleFunc("GET /cache/status", handler.GetCacheStatus)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /internal/snapshots/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RefreshSnapshots)))
}
