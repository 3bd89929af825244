// Package api serves the persisted records and stats of the latest crawl
// session over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"civic-crawler/logger"
	"civic-crawler/models"
	"civic-crawler/storage"
)

const (
	defaultLimit      = 100
	maxLimit          = 1000
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// NewRouter builds the gin engine with the read-only routes. The gin mode is
// left to the caller.
func NewRouter(reader storage.RecordReader, log logger.Interface) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/records", handleRecords(reader))
	router.GET("/stats", handleStats(reader))

	return router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log logger.Interface) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.Info("Starting HTTP server", "addr", addr)
	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func handleRecords(reader storage.RecordReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var dataType models.DataType
		if raw := c.Query("data_type"); raw != "" {
			dt, err := models.ParseDataType(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
			dataType = dt
		}

		records, err := reader.GetRecords(c.Request.Context(), dataType, parseLimit(c))
		if err != nil {
			respondStorageError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
	}
}

func handleStats(reader storage.RecordReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := reader.GetStats(c.Request.Context())
		if err != nil {
			respondStorageError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// parseLimit reads the limit query param, falling back to the default for
// missing or invalid values.
func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

func respondStorageError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNoSnapshot) {
		respondError(c, http.StatusNotFound, "no crawl data available")
		return
	}
	respondError(c, http.StatusInternalServerError, "failed to read crawl data")
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
