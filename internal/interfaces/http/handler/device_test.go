package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	deviceapp "github.com/keyo/identities-backend/internal/application/device"
	"github.com/keyo/identities-backend/internal/domain/device"
	"github.com/keyo/identities-backend/internal/infrastructure/localstore"
	"github.com/keyo/identities-backend/internal/interfaces/http/dto"
	"github.com/keyo/identities-backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDeviceEngine() *gin.Engine {
	svc := deviceapp.NewService(localstore.NewManager(), zap.NewNop())
	engine := gin.New()
	NewDeviceHandler(svc).RegisterRoutes(engine.Group("/api"))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, profileID, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if profileID != "" {
		req.Header.Set(middleware.ProfileIDHeader, profileID)
	}
	engine.ServeHTTP(rec, req)
	return rec
}

func addDevice(t *testing.T, engine *gin.Engine, profileID, serial, deviceID string) device.Device {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/devices", profileID,
		`{"serial_number":"`+serial+`","device_id":"`+deviceID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data device.Device `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func TestDeviceHandler_AddAndList(t *testing.T) {
	engine := newDeviceEngine()

	added := addDevice(t, engine, "profile-1", "SN-1", "wave-1")
	assert.True(t, strings.HasPrefix(added.ID, "dev-"))

	rec := doJSON(t, engine, http.MethodGet, "/api/devices", "profile-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []device.Device `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, added.ID, resp.Data[0].ID)

	// Another profile sees an empty roster.
	rec = doJSON(t, engine, http.MethodGet, "/api/devices", "profile-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestDeviceHandler_Add_Invalid(t *testing.T) {
	engine := newDeviceEngine()

	rec := doJSON(t, engine, http.MethodPost, "/api/devices", "p", `{"serial_number":"SN-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeviceHandler_SelectedAndDefault(t *testing.T) {
	engine := newDeviceEngine()

	first := addDevice(t, engine, "p", "SN-1", "wave-1")
	second := addDevice(t, engine, "p", "SN-2", "wave-2")

	rec := doJSON(t, engine, http.MethodGet, "/api/devices/selected", "p", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data *device.Device `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, first.ID, resp.Data.ID)

	rec = doJSON(t, engine, http.MethodPut, "/api/devices/"+second.ID+"/default", "p", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/devices/selected", "p", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp.Data = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, second.ID, resp.Data.ID)
}

func TestDeviceHandler_Delete(t *testing.T) {
	engine := newDeviceEngine()
	added := addDevice(t, engine, "p", "SN-1", "wave-1")

	rec := doJSON(t, engine, http.MethodDelete, "/api/devices/"+added.ID, "p", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, engine, http.MethodDelete, "/api/devices/"+added.ID, "p", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestDeviceHandler_DemoMode(t *testing.T) {
	engine := newDeviceEngine()

	rec := doJSON(t, engine, http.MethodPut, "/api/settings/demo-mode", "p", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/settings/demo-mode", "p", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data demoModeRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Enabled)
}
