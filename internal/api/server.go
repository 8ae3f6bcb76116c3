package api

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/chanfle/fpdf/internal/index"
	"github.com/chanfle/fpdf/internal/memcache"
	"github.com/chanfle/fpdf/internal/query"
	"github.com/chanfle/fpdf/pkg/logging"
)

// Handlers exposes the cache and query operations over HTTP. The server is
// a local helper sidecar; it applies no authentication.
type Handlers struct {
	index *index.Index
	cache *memcache.Cache
}

// NewHandlers creates the handler set
func NewHandlers(ix *index.Index, cache *memcache.Cache) *Handlers {
	return &Handlers{index: ix, cache: cache}
}

// NewApp builds the fiber application with all routes registered
func NewApp(h *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "fpdf",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Get("/health", h.Health)
	app.Get("/cache/entries", h.ListEntries)
	app.Get("/cache/stats", h.CacheStats)
	app.Get("/cache/find/:token", h.FindEntry)
	app.Post("/query/:token", h.Query)

	return app
}

// Health returns the service health status
func (h *Handlers) Health(c *fiber.Ctx) error {
	entries, retained := h.cache.Stats()
	return c.JSON(fiber.Map{
		"status":           "healthy",
		"service":          "fpdf",
		"memcache_entries": entries,
		"memcache_bytes":   retained,
		"timestamp":        time.Now().UTC(),
	})
}

// ListEntries returns the cache listing in insertion order
func (h *Handlers) ListEntries(c *fiber.Ctx) error {
	entries, err := h.index.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"count":   len(entries),
		"entries": entries,
	})
}

// CacheStats returns the aggregate statistics, including any warnings
// about unavailable secondary aggregates
func (h *Handlers) CacheStats(c *fiber.Ctx) error {
	stats, err := h.index.Stats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(stats)
}

// FindEntry resolves a token to one cache entry. An unresolvable token is
// a 404 with an informational body, not a server error.
func (h *Handlers) FindEntry(c *fiber.Ctx) error {
	token := c.Params("token")
	entry, found, err := h.index.Resolve(token)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("no cache entry matches %q", token),
		})
	}
	return c.JSON(entry)
}

// QueryRequest is the body of a query call
type QueryRequest struct {
	Scope   string            `json:"scope"` // pages or objects
	Filters map[string]string `json:"filters"`
	// Order preserves filter insertion order for reason output; optional
	Order []string `json:"order,omitempty"`
}

// Query resolves the token, loads the analysis through the memory cache,
// and evaluates the supplied filters.
func (h *Handlers) Query(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid request body",
			"details": err.Error(),
		})
	}

	token := c.Params("token")
	blobPath, err := h.index.FindBlobPath(token)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, index.ErrBlobMissing) {
			status = fiber.StatusGone
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	if blobPath == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("no cache entry matches %q", token),
		})
	}

	result, err := h.cache.Load(blobPath)
	if err != nil {
		var corrupt *memcache.CorruptArtifactError
		if errors.As(err, &corrupt) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": corrupt.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	spec := query.NewFilterSpec()
	for _, name := range req.Order {
		if value, ok := req.Filters[name]; ok {
			spec.Add(name, value)
		}
	}
	if spec.Len() == 0 {
		// Without an explicit order, sort the names so reason output is
		// stable across identical requests
		names := make([]string, 0, len(req.Filters))
		for name := range req.Filters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			spec.Add(name, req.Filters[name])
		}
	}

	scope := query.ScopePages
	if req.Scope == string(query.ScopeObjects) {
		scope = query.ScopeObjects
	}

	matches, err := query.Evaluate(result, scope, spec)
	if err != nil {
		var malformed *query.MalformedFilterError
		if errors.As(err, &malformed) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"count":   len(matches),
		"matches": matches,
	})
}

// Serve runs the helper server until the listener fails
func Serve(h *Handlers, addr string) error {
	logger := logging.GetLogger("api")
	logger.Info().Str("address", addr).Msg("Starting helper server")
	return NewApp(h).Listen(addr)
}
