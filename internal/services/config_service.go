// Package services – ConfigService
//
// This file implements the ConfigService, which reads and writes the two
// persistent config namespaces, masks secrets on the server read path,
// persists the AI-summary keys as a group, clears the ephemeral cache
// namespace, and runs the admin AI connectivity probe.
package services

import (
	"context"

	"github.com/xiaohuihuib/Rin/internal/ai"
	"github.com/xiaohuihuib/Rin/internal/kv"
	"github.com/xiaohuihuib/Rin/internal/settings"
)

// Config namespace selectors used by the HTTP surface.
const (
	ConfigTypeServer = "server"
	ConfigTypeClient = "client"
)

// AIProber is the connectivity-probe contract needed by TestAI.
// *ai.Client satisfies it; tests substitute a stub.
type AIProber interface {
	Probe(ctx context.Context, req ai.ProbeRequest) (*ai.ProbeResult, error)
}

// ConfigService exposes the config namespaces to the HTTP layer. All three
// stores share the same underlying table but distinct namespaces; nothing
// this service does to one namespace can leak into another.
type ConfigService struct {
	// Server holds admin-only settings, masked on read.
	Server kv.Store
	// Client holds publicly readable settings.
	Client kv.Store
	// Cache is the ephemeral namespace cleared by ClearCache.
	Cache kv.Cache
	// Prober runs the AI connectivity check.
	Prober AIProber
}

// NewConfigService constructs a ConfigService.
func NewConfigService(server, client kv.Store, cache kv.Cache, prober AIProber) *ConfigService {
	return &ConfigService{Server: server, Client: client, Cache: cache, Prober: prober}
}

// store resolves a config type selector to its namespace.
func (s *ConfigService) store(typ string) (kv.Store, error) {
	switch typ {
	case ConfigTypeServer:
		return s.Server, nil
	case ConfigTypeClient:
		return s.Client, nil
	default:
		return nil, ErrInvalidConfigType
	}
}

// Get returns the full mapping of the named config namespace. Server reads
// have every sensitive value replaced by the mask token; client reads are
// returned verbatim.
func (s *ConfigService) Get(ctx context.Context, typ string) (map[string]string, error) {
	st, err := s.store(typ)
	if err != nil {
		return nil, err
	}
	all, err := st.All(ctx)
	if err != nil {
		return nil, err
	}
	if typ == ConfigTypeServer {
		return settings.Mask(all), nil
	}
	return all, nil
}

// Update persists the given dotted-key values into the named namespace.
//
// Two rules shape the write set:
//   - A submitted value equal to the mask token is dropped: the client is
//     echoing back a masked secret, not changing it.
//   - When any AI-summary group key is present, the group is persisted as a
//     unit: provided members are written and the group's enabled flag
//     defaults to "true" unless explicitly submitted.
//
// All writes are staged and flushed in one Save so a failed update never
// leaves a half-written namespace behind.
func (s *ConfigService) Update(ctx context.Context, typ string, values map[string]string) error {
	st, err := s.store(typ)
	if err != nil {
		return err
	}

	groupTouched := false
	for k, v := range values {
		if settings.IsSensitive(k) && v == settings.MaskToken {
			continue
		}
		if settings.GroupFor(k) == settings.GroupAISummary {
			groupTouched = true
		}
		if err := st.Set(ctx, k, v, false); err != nil {
			return err
		}
	}

	if groupTouched {
		if _, explicit := values["ai_summary.enabled"]; !explicit {
			if err := st.Set(ctx, "ai_summary.enabled", "true", false); err != nil {
				return err
			}
		}
	}

	return st.Save(ctx)
}

// ClearCache removes every key from the ephemeral cache namespace. The
// config namespaces are untouched by construction: the clear is scoped to
// the cache store only.
func (s *ConfigService) ClearCache(ctx context.Context) error {
	return s.Cache.Clear(ctx)
}

// TestAI runs a live connectivity probe against the given provider. When
// the request carries no key, the stored server-config AI key is used.
// Upstream failures are returned as-is so the handler can surface them
// without conflating them with this service's own auth gate.
func (s *ConfigService) TestAI(ctx context.Context, req ai.ProbeRequest) (*ai.ProbeResult, error) {
	if req.APIKey == "" {
		key, err := s.Server.GetOrDefault(ctx, "ai_summary.api_key", "")
		if err != nil {
			return nil, err
		}
		req.APIKey = key
	}
	return s.Prober.Probe(ctx, req)
}
