package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pricesync/internal/domain/model"
	"pricesync/internal/domain/port"
	"pricesync/internal/infrastructure/metrics"
)

// RegistryLoadKind tags where the existing registry came from.
type RegistryLoadKind int

const (
	RegistryEmpty RegistryLoadKind = iota
	RegistryFromColdStore
	RegistryFromMirror
	RegistryFromMirrorAfterColdError
)

func (k RegistryLoadKind) String() string {
	switch k {
	case RegistryFromColdStore:
		return "cold_store"
	case RegistryFromMirror:
		return "hot_cache_mirror"
	case RegistryFromMirrorAfterColdError:
		return "hot_cache_mirror_after_cold_error"
	default:
		return "empty"
	}
}

// RegistryLoad is the result of loading the existing registry. Registry is
// nil exactly when Kind is RegistryEmpty.
type RegistryLoad struct {
	Kind     RegistryLoadKind
	Registry *model.Registry
}

// RegistrySync merges freshly fetched metadata into the append-only registry.
type RegistrySync struct {
	provider port.MetadataProvider
	cache    port.HotCache
	cold     port.ColdStore
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewRegistrySync builds the synchronizer. cold may be nil when no cold
// tier is configured.
func NewRegistrySync(provider port.MetadataProvider, cache port.HotCache, cold port.ColdStore, m *metrics.Metrics, logger *slog.Logger) *RegistrySync {
	return &RegistrySync{
		provider: provider,
		cache:    cache,
		cold:     cold,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Refresh fetches listings and merges them into the registry. Nothing is
// written unless the fetch succeeds and some tier yields the existing
// registry (or both confirm there is none). The mirror is written even when
// the cold write fails.
func (s *RegistrySync) Refresh(ctx context.Context, trigger model.Trigger) error {
	listings, err := s.provider.FetchListings(ctx)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		return &model.MalformedResponseError{Provider: s.provider.Name(), Reason: "empty listing"}
	}

	load, err := s.loadExisting(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	fresh := BuildRegistry(s.provider.Name(), listings, now)

	var merged *model.Registry
	switch load.Kind {
	case RegistryEmpty:
		s.logger.Info("no existing registry, starting fresh", "trigger", trigger)
		merged = fresh
	default:
		merged = MergeRegistry(load.Registry, fresh, now)
	}

	// A mirror loaded because the cold store was unreadable may lag it, so
	// the cold copy is left alone until it can be read again.
	writeCold := s.cold != nil && load.Kind != RegistryFromMirrorAfterColdError

	var coldErr error
	if writeCold {
		if err := s.cold.PutRegistry(ctx, merged); err != nil {
			coldErr = fmt.Errorf("failed to persist registry: %w", err)
		} else {
			s.metrics.ColdStoreWrites.WithLabelValues("registry").Inc()
		}
	}

	if err := s.cache.PutRegistryMirror(ctx, merged); err != nil {
		return errors.Join(coldErr, fmt.Errorf("failed to mirror registry: %w", err))
	}
	s.metrics.HotCacheWrites.WithLabelValues("registry").Inc()

	if coldErr != nil {
		return coldErr
	}

	if writeCold {
		if err := s.cold.PutRegistryComposition(ctx, Composition(listings, now)); err != nil {
			return fmt.Errorf("failed to write registry composition: %w", err)
		}
		s.metrics.ColdStoreWrites.WithLabelValues("registry_composition").Inc()
	}

	s.logger.Info("registry refreshed",
		"trigger", trigger,
		"loaded_from", load.Kind,
		"fetched", len(listings),
		"previous", countOf(load.Registry),
		"total", merged.Count)
	return nil
}

// loadExisting prefers the cold store and falls back to the hot-cache
// mirror, including when the cold store cannot be read. A read error is only
// fatal when no tier yields a registry, so an outage cannot reset it.
func (s *RegistrySync) loadExisting(ctx context.Context) (RegistryLoad, error) {
	var coldErr error
	if s.cold != nil {
		reg, err := s.cold.GetRegistry(ctx)
		switch {
		case err != nil:
			coldErr = fmt.Errorf("failed to load registry from cold store: %w", err)
			s.logger.Warn("cold store unreadable, falling back to registry mirror", "error", err)
		case reg != nil:
			return RegistryLoad{Kind: RegistryFromColdStore, Registry: reg}, nil
		}
	}

	reg, err := s.cache.GetRegistryMirror(ctx)
	if err != nil {
		return RegistryLoad{}, errors.Join(coldErr, fmt.Errorf("failed to load registry mirror: %w", err))
	}
	if reg != nil {
		if coldErr != nil {
			return RegistryLoad{Kind: RegistryFromMirrorAfterColdError, Registry: reg}, nil
		}
		return RegistryLoad{Kind: RegistryFromMirror, Registry: reg}, nil
	}
	if coldErr != nil {
		return RegistryLoad{}, coldErr
	}
	return RegistryLoad{Kind: RegistryEmpty}, nil
}

func countOf(r *model.Registry) int {
	if r == nil {
		return 0
	}
	return len(r.Entries)
}
