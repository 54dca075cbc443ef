package service

import (
	"time"

	"pricesync/internal/domain/model"
)

// BuildRegistry creates a registry holding only the given listings. When an
// ID repeats within one fetch the first listing wins.
func BuildRegistry(source string, listings []model.AssetMetadata, now time.Time) *model.Registry {
	reg := model.NewRegistry(source)
	reg.UpdatedAt = now
	for _, l := range listings {
		if l.ID == "" {
			continue
		}
		if _, ok := reg.Entries[l.ID]; ok {
			continue
		}
		reg.Entries[l.ID] = model.RegistryEntry{
			ID:            l.ID,
			Symbol:        l.Symbol,
			Name:          l.Name,
			LogoURL:       l.LogoURL,
			MarketCapRank: l.MarketCapRank,
			FirstSeenAt:   now,
			LastSeenAt:    now,
		}
		reg.IndexSymbol(l.Symbol, l.ID)
	}
	reg.Count = len(reg.Entries)
	return reg
}

// MergeRegistry folds fresh into a copy of existing. Entries are never
// removed: known IDs keep firstSeenAt and get their display fields and
// lastSeenAt refreshed, unknown IDs are inserted. Symbol index lists are
// unioned in insertion order.
func MergeRegistry(existing, fresh *model.Registry, now time.Time) *model.Registry {
	merged := cloneRegistry(existing)
	merged.Source = fresh.Source
	merged.UpdatedAt = now

	for id, e := range fresh.Entries {
		prev, ok := merged.Entries[id]
		if !ok {
			e.FirstSeenAt = now
			e.LastSeenAt = now
			merged.Entries[id] = e
			continue
		}

		prev.Symbol = e.Symbol
		prev.Name = e.Name
		if e.LogoURL != "" {
			prev.LogoURL = e.LogoURL
		}
		prev.MarketCapRank = e.MarketCapRank
		if now.After(prev.LastSeenAt) {
			prev.LastSeenAt = now
		}
		merged.Entries[id] = prev
	}

	for symbol, ids := range fresh.BySymbol {
		for _, id := range ids {
			merged.IndexSymbol(symbol, id)
		}
	}

	merged.Count = len(merged.Entries)
	return merged
}

func cloneRegistry(r *model.Registry) *model.Registry {
	out := model.NewRegistry(r.Source)
	out.UpdatedAt = r.UpdatedAt
	for id, e := range r.Entries {
		out.Entries[id] = e
	}
	for symbol, ids := range r.BySymbol {
		out.BySymbol[symbol] = append([]string(nil), ids...)
	}
	return out
}

// Composition lists symbol, ID and rank for every listing of one fetch.
func Composition(listings []model.AssetMetadata, now time.Time) *model.RegistryComposition {
	comp := &model.RegistryComposition{
		Date:      now.UTC().Format(model.DateLayout),
		UpdatedAt: now,
		Assets:    make([]model.CompositionAsset, 0, len(listings)),
	}
	for _, l := range listings {
		if l.ID == "" {
			continue
		}
		comp.Assets = append(comp.Assets, model.CompositionAsset{Symbol: l.Symbol, ID: l.ID, Rank: l.MarketCapRank})
	}
	comp.Count = len(comp.Assets)
	return comp
}
