package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	identityapp "github.com/keyo/identities-backend/internal/application/identity"
	"github.com/keyo/identities-backend/internal/interfaces/http/middleware"
)

// MemberLookup resolves organization members and user session tokens
// against the identity provider.
type MemberLookup interface {
	GetMember(ctx context.Context, userID, keyPath string) (any, error)
	VerifyUserJWT(ctx context.Context, token string) (jwt.MapClaims, error)
}

// IdentityHandler serves the identity and enrollment endpoints.
type IdentityHandler struct {
	BaseHandler
	identities *identityapp.IdentityService
	enrollment *identityapp.EnrollmentService
	members    MemberLookup
}

// NewIdentityHandler creates an identity handler.
func NewIdentityHandler(
	identities *identityapp.IdentityService,
	enrollment *identityapp.EnrollmentService,
	members MemberLookup,
) *IdentityHandler {
	return &IdentityHandler{
		identities: identities,
		enrollment: enrollment,
		members:    members,
	}
}

// RegisterRoutes registers the identity routes
func (h *IdentityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/identities", h.List)
	rg.POST("/identities", h.Create)
	rg.GET("/identities/:id", h.Get)
	rg.PATCH("/identities/:id", h.Update)
	rg.DELETE("/identities/:id", h.Delete)
	rg.POST("/identities/:id/enroll", h.Enroll)
	rg.POST("/identities/:id/re-enroll", h.ReEnroll)
	rg.DELETE("/identities/:id/biometric", h.DeleteBiometric)
	rg.GET("/members/:userID", h.GetMember)
	rg.GET("/session", h.Session)
}

// List handles GET /api/identities
func (h *IdentityHandler) List(c *gin.Context) {
	dtos, err := h.identities.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dtos)
}

// Get handles GET /api/identities/:id
func (h *IdentityHandler) Get(c *gin.Context) {
	record, err := h.identities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Create handles POST /api/identities. With "enroll": true the fresh
// enrollment flow runs right after creation; an enrollment failure still
// returns the created record, with the failure attached.
func (h *IdentityHandler) Create(c *gin.Context) {
	var input identityapp.CreateIdentityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	profileID := middleware.GetProfileID(c)

	if !input.Enroll {
		record, err := h.identities.Create(c.Request.Context(), profileID, input)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Created(c, record)
		return
	}

	record, err := h.enrollment.CreateAndEnroll(c.Request.Context(), profileID, input)
	if err != nil && record == nil {
		h.HandleError(c, err)
		return
	}
	if err != nil {
		h.Created(c, gin.H{"identity": record, "enrollment_error": err.Error()})
		return
	}
	h.Created(c, record)
}

// Update handles PATCH /api/identities/:id
func (h *IdentityHandler) Update(c *gin.Context) {
	var input identityapp.UpdateIdentityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.identities.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Delete handles DELETE /api/identities/:id
func (h *IdentityHandler) Delete(c *gin.Context) {
	if err := h.identities.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Enroll handles POST /api/identities/:id/enroll
func (h *IdentityHandler) Enroll(c *gin.Context) {
	err := h.enrollment.Enroll(c.Request.Context(), middleware.GetProfileID(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"status": "enrollment_started"})
}

// ReEnroll handles POST /api/identities/:id/re-enroll
func (h *IdentityHandler) ReEnroll(c *gin.Context) {
	err := h.enrollment.ReEnroll(c.Request.Context(), middleware.GetProfileID(c), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"status": "enrollment_started"})
}

// DeleteBiometric handles DELETE /api/identities/:id/biometric
func (h *IdentityHandler) DeleteBiometric(c *gin.Context) {
	if err := h.enrollment.RemoveBiometric(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetMember handles GET /api/members/:userID. An optional "key" query
// drills into the member object by dotted path.
func (h *IdentityHandler) GetMember(c *gin.Context) {
	value, err := h.members.GetMember(c.Request.Context(), c.Param("userID"), c.Query("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, value)
}

// Session handles GET /api/session: it verifies the caller's user JWT with
// the identity provider and returns its claims for display.
func (h *IdentityHandler) Session(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.BadRequest(c, "token query parameter is required")
		return
	}

	claims, err := h.members.VerifyUserJWT(c.Request.Context(), token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, claims)
}
