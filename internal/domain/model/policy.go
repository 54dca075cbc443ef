package model

// SymbolPolicy decides which record keeps a symbol when several records
// share it.
type SymbolPolicy int

const (
	// FirstSeen keeps the first record encountered. The normalizer uses it.
	FirstSeen SymbolPolicy = iota
	// LowestRank keeps the record with the lowest positive rank; unranked
	// records lose to ranked ones and ties keep the earlier record. Symbol
	// disambiguation against the registry uses it.
	LowestRank
)

func (p SymbolPolicy) String() string {
	switch p {
	case FirstSeen:
		return "first_seen"
	case LowestRank:
		return "lowest_rank"
	default:
		return "unknown"
	}
}

// Replace reports whether a candidate with rank candidate should displace
// the current holder with rank current.
func (p SymbolPolicy) Replace(current, candidate int) bool {
	if p != LowestRank {
		return false
	}
	if candidate <= 0 {
		return false
	}
	return current <= 0 || candidate < current
}

// Resolve picks one registry entry for symbol under policy. The candidates
// are returned in index order.
func (r *Registry) Resolve(symbol string, policy SymbolPolicy) (RegistryEntry, []RegistryEntry, bool) {
	var (
		best       RegistryEntry
		found      bool
		candidates []RegistryEntry
	)
	for _, id := range r.BySymbol[symbol] {
		e, ok := r.Entries[id]
		if !ok {
			continue
		}
		candidates = append(candidates, e)
		if !found || policy.Replace(best.MarketCapRank, e.MarketCapRank) {
			best, found = e, true
		}
	}
	return best, candidates, found
}
