package routing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Router struct {
	handler *CatalogHandler
	logger  *Logger
}

// NewRouter builds the router. logger may be nil, in which case requests are
// not logged.
func NewRouter(handler *CatalogHandler, logger *Logger) *Router {
	return &Router{
		handler: handler,
		logger:  logger,
	}
}

func (router *Router) SetupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if router.logger != nil {
		r.Use(router.logger.LoggerMiddleware)
	}

	r.Get("/health", router.handler.Health)

	r.Get("/categories", router.handler.GetCategories)
	r.Get("/categories/{slug}", router.handler.GetCategory)

	r.Get("/products", router.handler.GetProducts)
	r.Get("/products/{slug}", router.handler.GetProduct)

	r.Get("/contact/options", router.handler.GetContactOptions)
	r.Post("/contact", router.handler.PostContact)

	r.Route("/debug/cache", func(r chi.Router) {
		r.Get("/", router.handler.GetCacheStats)
		r.Delete("/", router.handler.ClearCache)
		r.Delete("/*", router.handler.InvalidateKey)
	})

	return r
}
