package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ProductParser/internal/models"
	"ProductParser/internal/scraper"
)

const shutdownTimeout = 10 * time.Second

// Handler exposes the parsing pipeline over HTTP.
type Handler struct {
	registry *scraper.Registry
	store    scraper.RecordStore
}

func NewHandler(registry *scraper.Registry, store scraper.RecordStore) *Handler {
	return &Handler{registry: registry, store: store}
}

// Router wires the API routes.
func (h *Handler) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/health", h.health)

	product := router.Group("/product")
	product.GET("/offers", h.productOffers)
	product.GET("/comments", h.productComments)

	return router
}

// productOffers handles GET /product/offers. Numeric knobs that do not
// parse are treated as absent, the sources fall back to their defaults.
func (h *Handler) productOffers(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	opts := scraper.Options{
		TimeoutLimit: parseOptionalInt(c.Query("timeout_limit")),
		CountLimit:   parseOptionalInt(c.Query("count_limit")),
		PriceSort:    c.Query("sort"),
	}

	slog.Info("offers request", "url", rawURL)

	data, err := h.parse(c.Request.Context(), rawURL, opts)
	if err != nil {
		slog.Error("offers request failed", "url", rawURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, data.ToOffersResponse())
}

// productComments handles GET /product/comments.
func (h *Handler) productComments(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	opts := scraper.Options{DateTo: c.Query("date_to")}

	slog.Info("comments request", "url", rawURL)

	data, err := h.parse(c.Request.Context(), rawURL, opts)
	if err != nil {
		slog.Error("comments request failed", "url", rawURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, data.ToCommentsResponse())
}

func (h *Handler) health(c *gin.Context) {
	if !h.store.Available(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
}

func (h *Handler) parse(ctx context.Context, rawURL string, opts scraper.Options) (*models.ProductData, error) {
	src, err := h.registry.ForURL(rawURL)
	if err != nil {
		return nil, err
	}
	return src.Parse(ctx, rawURL, opts)
}

func parseOptionalInt(s string) *int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// Run serves the API until the process receives SIGINT or SIGTERM, then
// drains in-flight requests before returning.
func Run(port string, handler *Handler) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
