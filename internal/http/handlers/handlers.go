// Package handlers provides HTTP handler implementations for the public API.
//
// This file declares the service contracts the handlers depend on and the
// Handlers aggregate that the router wires up. Handlers stay transport-thin:
// they validate and normalize inputs, delegate to the service layer, and map
// service-level sentinel errors to HTTP responses.
package handlers

import (
	"context"

	"github.com/xiaohuihuib/Rin/internal/ai"
)

// ConfigService is the contract required by the config endpoints.
type ConfigService interface {
	// Get returns the full mapping of the named namespace, masked when
	// the namespace is "server".
	Get(ctx context.Context, typ string) (map[string]string, error)

	// Update persists the given dotted-key values into the namespace.
	Update(ctx context.Context, typ string, values map[string]string) error

	// ClearCache empties the ephemeral cache namespace only.
	ClearCache(ctx context.Context) error

	// TestAI runs a live connectivity probe against an AI provider.
	TestAI(ctx context.Context, req ai.ProbeRequest) (*ai.ProbeResult, error)
}

// MomentService is the contract required by the moments endpoints.
type MomentService interface {
	// ListPage returns the serialized listing payload for one page.
	ListPage(ctx context.Context, page, limit int) ([]byte, error)

	// Create inserts a moment owned by uid and returns its id.
	Create(ctx context.Context, uid uint, content string) (uint, error)

	// Update replaces the content of an existing moment.
	Update(ctx context.Context, id uint, content string) error

	// Delete removes an existing moment.
	Delete(ctx context.Context, id uint) error
}

// Handlers aggregates every endpoint implementation. It depends on abstract
// service interfaces to keep transport concerns separate from business
// logic (and to keep the handlers testable with stubs).
type Handlers struct {
	cfgSvc    ConfigService
	momentSvc MomentService
}

// New constructs the Handlers aggregate.
func New(cfgSvc ConfigService, momentSvc MomentService) *Handlers {
	return &Handlers{cfgSvc: cfgSvc, momentSvc: momentSvc}
}
