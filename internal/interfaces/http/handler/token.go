package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keyo/identities-backend/internal/infrastructure/keyo"
	"github.com/keyo/identities-backend/internal/interfaces/http/dto"
)

// TokenIssuer issues widget session tokens.
type TokenIssuer interface {
	IssueToken(ctx context.Context, email, password string) (*keyo.TokenResponse, error)
}

// TokenHandler serves the widget's token endpoint.
type TokenHandler struct {
	BaseHandler
	tokens TokenIssuer
}

// NewTokenHandler creates a token handler.
func NewTokenHandler(tokens TokenIssuer) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// RegisterRoutes registers the token routes
func (h *TokenHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", h.Issue)
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Issue handles POST /api/token. The body is optional: no credentials
// means a silent refresh. The success body is the raw token response, not
// the envelope; the widget consumes it directly.
func (h *TokenHandler) Issue(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeCredentialsRequired,
			"email and password are required")
		return
	}

	token, err := h.tokens.IssueToken(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}
