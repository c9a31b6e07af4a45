// Package handler contains the gin handlers for the gateway's API surface.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keyo/identities-backend/internal/domain/shared"
	"github.com/keyo/identities-backend/internal/infrastructure/keyo"
	"github.com/keyo/identities-backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError converts domain and upstream errors to HTTP responses.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	// Upstream rejections keep their status so the widget can react to
	// 401s; the message is whatever detail the payload carried.
	var apiErr *keyo.APIError
	if errors.As(err, &apiErr) {
		h.Error(c, apiErr.StatusCode, dto.ErrCodeUpstreamError,
			apiErr.Message("The identity provider rejected the request"))
		return
	}

	if errors.Is(err, keyo.ErrInvalidUserToken) {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized,
			"Invalid or expired session token")
		return
	}

	if errors.Is(err, keyo.ErrUnavailable) {
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstreamUnavailable,
			"The identity provider is unreachable")
		return
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal,
		"An unexpected error occurred")
}
