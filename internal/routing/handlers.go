package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pelyams/sneaker_house_service/internal/contact"
	"github.com/pelyams/sneaker_house_service/internal/domain"
	"github.com/pelyams/sneaker_house_service/internal/ports"
)

type ctxKey int

const errorContainerKey ctxKey = iota

// WithErrorContainer attaches the per-request error list the logger reports.
func WithErrorContainer(ctx context.Context, c *domain.ErrorContainer) context.Context {
	return context.WithValue(ctx, errorContainerKey, c)
}

// errorContainerFrom returns the request's error list, or a detached one when
// the handler runs without the logger middleware.
func errorContainerFrom(ctx context.Context) *domain.ErrorContainer {
	if c, ok := ctx.Value(errorContainerKey).(*domain.ErrorContainer); ok && c != nil {
		return c
	}
	c := domain.NewErrorContainer()
	return &c
}

type CatalogHandler struct {
	svc           ports.CatalogService
	contact       *contact.Builder
	publicBaseURL string
}

// NewCatalogHandler wires the catalog endpoints. publicBaseURL is the
// storefront origin used in product links sent to customers.
func NewCatalogHandler(svc ports.CatalogService, builder *contact.Builder, publicBaseURL string) *CatalogHandler {
	return &CatalogHandler{
		svc:           svc,
		contact:       builder,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (h *CatalogHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, serviceErr := h.svc.LoadCategories(r.Context())
	if handleServiceErr(w, r, serviceErr) {
		return
	}
	writeJSON(w, http.StatusOK, domain.CategoriesPayload{Categories: cats})
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	rarity := r.URL.Query().Get("rarity")
	grid, serviceErr := h.svc.CategoryGrid(r.Context(), slug, rarity)
	if handleServiceErr(w, r, serviceErr) {
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (h *CatalogHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	sneakers, serviceErr := h.svc.LoadSneakers(r.Context())
	if handleServiceErr(w, r, serviceErr) {
		return
	}
	writeJSON(w, http.StatusOK, domain.SneakersPayload{Sneakers: sneakers})
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	sneaker, found, serviceErr := h.svc.GetSneakerBySlug(r.Context(), slug)
	if handleServiceErr(w, r, serviceErr) {
		return
	}
	if !found {
		errorContainerFrom(r.Context()).Add(fmt.Errorf("%w: product %q", domain.ErrNotFound, slug))
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	productURL := fmt.Sprintf("%s/product/%s", h.publicBaseURL, sneaker.Slug)
	writeJSON(w, http.StatusOK, struct {
		Sneaker  domain.Sneaker `json:"sneaker"`
		OrderURL string         `json:"orderUrl"`
	}{
		Sneaker:  sneaker,
		OrderURL: h.contact.OrderLink(productURL),
	})
}

func (h *CatalogHandler) GetContactOptions(w http.ResponseWriter, r *http.Request) {
	sneakers, serviceErr := h.svc.LoadSneakers(r.Context())
	if handleServiceErr(w, r, serviceErr) {
		return
	}
	products := make([]string, 0, len(sneakers))
	for _, s := range sneakers {
		products = append(products, s.Name)
	}
	writeJSON(w, http.StatusOK, struct {
		Products []string `json:"products"`
		Sizes    []string `json:"sizes"`
	}{
		Products: products,
		Sizes:    contact.Sizes,
	})
}

func (h *CatalogHandler) PostContact(w http.ResponseWriter, r *http.Request) {
	var inq domain.Inquiry
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&inq); err != nil {
		errorContainerFrom(r.Context()).Add(fmt.Errorf("failed to decode payload: %w", err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	link, err := h.contact.InquiryLink(inq)
	if err != nil {
		errorContainerFrom(r.Context()).Add(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

func (h *CatalogHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CacheStats(r.Context()))
}

func (h *CatalogHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCache(r.Context()); err != nil {
		errorContainerFrom(r.Context()).Add(err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateKey drops one entry. The key is the path after /debug/cache, so
// DELETE /debug/cache/sneakers/products.json drops "/sneakers/products.json".
func (h *CatalogHandler) InvalidateKey(w http.ResponseWriter, r *http.Request) {
	key := "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "/" {
		errorContainerFrom(r.Context()).Add(fmt.Errorf("%w: empty cache key", domain.ErrInvalidInput))
		writeError(w, http.StatusBadRequest, "cache key required")
		return
	}
	if err := h.svc.InvalidateKey(r.Context(), key); err != nil {
		errorContainerFrom(r.Context()).Add(err)
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleServiceErr records every error on the request and writes the error
// response when one of them is critical. It reports whether it did.
func handleServiceErr(w http.ResponseWriter, r *http.Request, e *domain.ServiceError) bool {
	if e == nil {
		return false
	}
	storeServiceErrToCtx(r.Context(), e)
	if e.CriticalError == nil {
		return false
	}
	if errors.Is(e.CriticalError, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, e.CriticalError.Error())
	} else {
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
	return true
}

func storeServiceErrToCtx(ctx context.Context, e *domain.ServiceError) {
	errs := errorContainerFrom(ctx)
	if e.CriticalError != nil {
		errs.Add(e.CriticalError)
	}
	if e.NonCriticalErrors != nil {
		errs.Add(e.NonCriticalErrors...)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
