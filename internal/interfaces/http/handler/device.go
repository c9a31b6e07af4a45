package handler

import (
	"github.com/gin-gonic/gin"
	deviceapp "github.com/keyo/identities-backend/internal/application/device"
	"github.com/keyo/identities-backend/internal/interfaces/http/middleware"
)

// DeviceHandler serves the device administration endpoints. All device
// state is scoped to the caller's browser profile.
type DeviceHandler struct {
	BaseHandler
	devices *deviceapp.Service
}

// NewDeviceHandler creates a device handler.
func NewDeviceHandler(devices *deviceapp.Service) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// RegisterRoutes registers the device routes
func (h *DeviceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/devices", h.List)
	rg.POST("/devices", h.Add)
	rg.DELETE("/devices/:id", h.Delete)
	rg.PUT("/devices/:id/default", h.SetDefault)
	rg.GET("/devices/selected", h.Selected)
	rg.GET("/settings/demo-mode", h.GetDemoMode)
	rg.PUT("/settings/demo-mode", h.SetDemoMode)
}

// List handles GET /api/devices
func (h *DeviceHandler) List(c *gin.Context) {
	h.Success(c, h.devices.List(middleware.GetProfileID(c)))
}

// Add handles POST /api/devices
func (h *DeviceHandler) Add(c *gin.Context) {
	var input deviceapp.AddDeviceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	added, err := h.devices.Add(middleware.GetProfileID(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, added)
}

// Delete handles DELETE /api/devices/:id
func (h *DeviceHandler) Delete(c *gin.Context) {
	if err := h.devices.Delete(middleware.GetProfileID(c), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SetDefault handles PUT /api/devices/:id/default
func (h *DeviceHandler) SetDefault(c *gin.Context) {
	if err := h.devices.SetDefault(middleware.GetProfileID(c), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Selected handles GET /api/devices/selected. Data is null when no device
// is registered; the widget then lets upstream choose.
func (h *DeviceHandler) Selected(c *gin.Context) {
	selected, err := h.devices.Selected(middleware.GetProfileID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, selected)
}

type demoModeRequest struct {
	Enabled bool `json:"enabled"`
}

// GetDemoMode handles GET /api/settings/demo-mode
func (h *DeviceHandler) GetDemoMode(c *gin.Context) {
	h.Success(c, demoModeRequest{Enabled: h.devices.DemoMode(middleware.GetProfileID(c))})
}

// SetDemoMode handles PUT /api/settings/demo-mode
func (h *DeviceHandler) SetDemoMode(c *gin.Context) {
	var req demoModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.devices.SetDemoMode(middleware.GetProfileID(c), req.Enabled)
	h.Success(c, req)
}
