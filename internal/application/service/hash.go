package service

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"pricesync/internal/domain/model"
)

// HashPrices returns the content hash of a price set. encoding/json emits
// map keys in sorted order, so equal sets hash equally.
func HashPrices(prices model.PriceSet) (string, error) {
	data, err := json.Marshal(prices)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prices for hashing: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
