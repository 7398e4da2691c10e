// Package handler provides HTTP handlers for the dirscope REST API.
package handler

import (
	"errors"
	iofs "io/fs"
	"net/http"

	"github.com/CageChen/dirscope/internal/entry"
	"github.com/gin-gonic/gin"
)

// statusFor maps explorer and indexer errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entry.ErrPathDoesNotExist):
		return http.StatusNotFound
	case errors.Is(err, entry.ErrNotADirectory), errors.Is(err, entry.ErrFaultyName):
		return http.StatusBadRequest
	case errors.Is(err, iofs.ErrPermission):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...} merged with extra fields.
func respondError(c *gin.Context, err error, extra gin.H) {
	body := gin.H{"error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(statusFor(err), body)
}
