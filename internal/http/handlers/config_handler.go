// Config HTTP handlers.
//
// This file exposes the site-configuration endpoints:
//   - GET    /config/{type}   (client: public, server: admin, masked)
//   - POST   /config/{type}   (admin; bulk upsert of dotted keys)
//   - DELETE /config/cache    (admin; clears the cache namespace only)
//   - POST   /config/test-ai  (admin; live AI provider connectivity probe)
//
// Auth gating happens in middleware; by the time an admin-only handler runs
// the caller is known to be an authenticated admin.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xiaohuihuib/Rin/internal/ai"
	"github.com/xiaohuihuib/Rin/internal/http/middleware"
	"github.com/xiaohuihuib/Rin/internal/services"
)

//
// DTOs
//

// TestAIRequest is the JSON payload for the AI connectivity probe.
type TestAIRequest struct {
	// Provider names the upstream (e.g. "openai", "deepseek").
	Provider string `json:"provider" binding:"required" example:"openai"`
	// Model is the model identifier sent with the probe.
	Model string `json:"model" binding:"required" example:"gpt-4o-mini"`
	// APIURL optionally overrides the provider's default endpoint.
	APIURL string `json:"api_url,omitempty" example:"https://api.openai.com/v1"`
	// TestPrompt optionally overrides the default probe prompt.
	TestPrompt string `json:"testPrompt,omitempty" example:"Reply with ok"`
}

// TestAIResponse is the JSON envelope for a successful probe.
type TestAIResponse struct {
	Success bool            `json:"success"`
	Result  *ai.ProbeResult `json:"result"`
}

//
// Handlers
//

// GetConfig godoc
// @ID          getConfig
// @Summary     Read a config namespace
// @Description Returns the full key/value mapping of the named namespace.
// @Description Server config requires admin auth and masks sensitive values;
// @Description client config is public.
// @Tags        Config
// @Produce     json
// @Param       type  path      string  true  "Config type"  Enums(server, client)
// @Success     200   {object}  map[string]string
// @Failure     400   {object}  handlers.ErrorResponse "Unknown config type"
// @Failure     401   {object}  handlers.ErrorResponse "Missing or invalid token"
// @Failure     403   {object}  handlers.ErrorResponse "Not an admin"
// @Router      /config/{type} [get]
func (h *Handlers) GetConfig(c *gin.Context) {
	typ := c.Param("type")
	if typ != services.ConfigTypeServer && typ != services.ConfigTypeClient {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "config type must be server or client")
		return
	}

	// The route itself is public for client config; the server namespace is
	// gated here against the identity OptionalAuth may have attached.
	if typ == services.ConfigTypeServer {
		user := middleware.UserFrom(c)
		if user == nil {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin() {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "admin permission required")
			return
		}
	}

	cfg, err := h.cfgSvc.Get(c.Request.Context(), typ)
	if err != nil {
		switch err {
		case services.ErrInvalidConfigType:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "config type must be server or client")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, cfg)
}

// UpdateConfig godoc
// @ID          updateConfig
// @Summary     Write config values
// @Description Persists a mapping of dotted keys into the named namespace.
// @Description Keys of the ai_summary group are persisted as a unit.
// @Tags        Config
// @Accept      json
// @Produce     json
// @Param       type  path  string             true  "Config type"  Enums(server, client)
// @Param       body  body  map[string]string  true  "Dotted keys to values"
// @Success     204   "Saved"
// @Failure     400   {object}  handlers.ErrorResponse "Unknown config type or malformed body"
// @Failure     401   {object}  handlers.ErrorResponse "Missing or invalid token"
// @Failure     403   {object}  handlers.ErrorResponse "Not an admin"
// @Router      /config/{type} [post]
func (h *Handlers) UpdateConfig(c *gin.Context) {
	typ := c.Param("type")

	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be an object of string values")
		return
	}

	if err := h.cfgSvc.Update(c.Request.Context(), typ, values); err != nil {
		switch err {
		case services.ErrInvalidConfigType:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "config type must be server or client")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	noContent(c)
}

// ClearCache godoc
// @ID          clearCache
// @Summary     Clear the cache namespace
// @Description Removes every cached entry. Server and client config are
// @Description untouched.
// @Tags        Config
// @Produce     json
// @Success     204  "Cleared"
// @Failure     401  {object}  handlers.ErrorResponse "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse "Not an admin"
// @Router      /config/cache [delete]
func (h *Handlers) ClearCache(c *gin.Context) {
	if err := h.cfgSvc.ClearCache(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}

// TestAI godoc
// @ID          testAI
// @Summary     Probe AI provider connectivity
// @Description Sends one minimal completion to the configured provider and
// @Description reports the outcome. Upstream failures surface as 502 with
// @Description the provider's own error, never as 401.
// @Tags        Config
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.TestAIRequest  true  "Probe parameters"
// @Success     200   {object}  handlers.TestAIResponse
// @Failure     400   {object}  handlers.ErrorResponse "Malformed body"
// @Failure     401   {object}  handlers.ErrorResponse "Missing or invalid token"
// @Failure     403   {object}  handlers.ErrorResponse "Not an admin"
// @Failure     502   {object}  handlers.ErrorResponse "Provider unreachable or rejected the probe"
// @Router      /config/test-ai [post]
func (h *Handlers) TestAI(c *gin.Context) {
	var req TestAIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "provider and model required")
		return
	}

	result, err := h.cfgSvc.TestAI(c.Request.Context(), ai.ProbeRequest{
		Provider:   req.Provider,
		Model:      req.Model,
		APIURL:     req.APIURL,
		TestPrompt: req.TestPrompt,
	})
	if err != nil {
		// Provider-side failures (including an upstream 401) must stay
		// distinguishable from this API's own auth gate.
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, TestAIResponse{Success: true, Result: result})
}
