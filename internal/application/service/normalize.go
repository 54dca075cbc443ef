package service

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"pricesync/internal/domain/model"
)

// field is one semantic value with the upstream locations it may live at,
// tried in order.
type field struct {
	name  string
	paths []func(context.Context, any) (any, error)
}

func newField(name string, paths ...string) field {
	f := field{name: name}
	for _, p := range paths {
		eval, err := jsonpath.New(p)
		if err != nil {
			panic("invalid jsonpath " + p + ": " + err.Error())
		}
		f.paths = append(f.paths, eval)
	}
	return f
}

// lookup returns the first non-null value found for the field.
func (f field) lookup(record any) (any, bool) {
	for _, eval := range f.paths {
		v, err := eval(context.Background(), record)
		if err != nil || v == nil {
			continue
		}
		return v, true
	}
	return nil, false
}

var (
	symbolField    = newField("symbol", "$.symbol", "$.ticker", "$.code")
	nameField      = newField("name", "$.name", "$.fullName", "$.full_name")
	rankField      = newField("rank", "$.rank", "$.market_cap_rank", "$.cmc_rank")
	priceField     = newField("price", "$.priceUsd", "$.price_usd", "$.current_price", "$.price", "$.quotes.USD.price")
	marketCapField = newField("market cap", "$.marketCapUsd", "$.market_cap_usd", "$.market_cap", "$.quotes.USD.market_cap")
	volumeField    = newField("volume", "$.volumeUsd24Hr", "$.volume_24h_usd", "$.total_volume", "$.volume24", "$.quotes.USD.volume_24h")
	changeField    = newField("change", "$.changePercent24Hr", "$.percent_change_24h", "$.price_change_percentage_24h", "$.quotes.USD.percent_change_24h")
)

// envelopeKeys are the object members known to wrap the record list.
var envelopeKeys = []string{"data", "coins", "result"}

// Normalizer turns a provider payload into the canonical price set.
type Normalizer struct {
	Policy model.SymbolPolicy
}

func NewNormalizer() *Normalizer {
	return &Normalizer{Policy: model.FirstSeen}
}

// Normalize accepts either a bare JSON array of records or an object
// wrapping one under a known key. Records without a symbol are skipped.
func (n *Normalizer) Normalize(provider string, payload any) (model.PriceSet, error) {
	records, err := extractRecords(provider, payload)
	if err != nil {
		return nil, err
	}

	out := make(model.PriceSet, len(records))
	kept := 0
	for _, raw := range records {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rec, ok := normalizeRecord(obj)
		if !ok {
			continue
		}
		if rec.Rank <= 0 {
			rec.Rank = kept + 1
		}

		current, exists := out[rec.Symbol]
		if exists && !n.Policy.Replace(current.Rank, rec.Rank) {
			continue
		}
		if !exists {
			kept++
		}
		out[rec.Symbol] = rec
	}

	if len(out) == 0 {
		return nil, &model.MalformedResponseError{Provider: provider, Reason: "no usable records"}
	}
	return out, nil
}

func extractRecords(provider string, payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range envelopeKeys {
			if list, ok := v[key].([]any); ok {
				return list, nil
			}
		}
		return nil, &model.MalformedResponseError{Provider: provider, Reason: "object without a record list"}
	default:
		return nil, &model.MalformedResponseError{Provider: provider, Reason: "payload is neither an array nor an object"}
	}
}

func normalizeRecord(obj map[string]any) (model.PriceRecord, bool) {
	sym, ok := symbolField.lookup(obj)
	if !ok {
		return model.PriceRecord{}, false
	}
	symbol, ok := sym.(string)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !ok || symbol == "" {
		return model.PriceRecord{}, false
	}

	rec := model.PriceRecord{
		Symbol:       symbol,
		Name:         stringValue(nameField, obj),
		Rank:         int(numberValue(rankField, obj)),
		PriceUSD:     nonNegative(numberValue(priceField, obj)),
		MarketCapUSD: nonNegative(numberValue(marketCapField, obj)),
		Volume24hUSD: nonNegative(numberValue(volumeField, obj)),
		Change24hPct: numberValue(changeField, obj),
	}
	if rec.Name == "" {
		rec.Name = symbol
	}
	return rec, true
}

func stringValue(f field, obj map[string]any) string {
	v, ok := f.lookup(obj)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// numberValue coerces the field to a float, falling back to 0.
func numberValue(f field, obj map[string]any) float64 {
	v, ok := f.lookup(obj)
	if !ok {
		return 0
	}
	n, ok := toFloat(v)
	if !ok {
		return 0
	}
	return n
}

func toFloat(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
