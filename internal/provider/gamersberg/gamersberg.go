// Package gamersberg normalizes the gamersberg.com stock APIs for
// Grow a Garden and Blox Fruits.
package gamersberg

import (
	"encoding/json"

	"fioso/internal/provider"
)

const (
	GardenURL = "https://www.gamersberg.com/api/grow-a-garden/stock"
	FruitsURL = "https://www.gamersberg.com/api/blox-fruits/stock"

	userAgent = "Mozilla/5.0"
	unknown   = "Unknown"
)

// GardenEntry registers the Grow a Garden stock endpoint.
func GardenEntry() provider.Entry {
	return provider.Entry{
		Request: provider.Request{
			URL: GardenURL,
			Headers: map[string]string{
				"Referer":    "https://www.gamersberg.com/grow-a-garden/stock",
				"User-Agent": userAgent,
			},
		},
		Format:    provider.FormatJSON,
		Normalize: NormalizeGarden,
	}
}

// FruitsEntry registers the Blox Fruits dealer stock endpoint.
func FruitsEntry() provider.Entry {
	return provider.Entry{
		Request: provider.Request{
			URL: FruitsURL,
			Headers: map[string]string{
				"Referer":    "https://www.gamersberg.com/blox-fruits/stock",
				"User-Agent": userAgent,
			},
		},
		Format:    provider.FormatJSON,
		Normalize: NormalizeFruits,
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// list decodes {"data": [...]} into its elements.
func list(payload []byte) ([]json.RawMessage, bool) {
	if provider.IsNull(payload) {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil || provider.IsNull(env.Data) {
		return nil, false
	}
	var out []json.RawMessage
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, false
	}
	return out, true
}

type gardenEntry struct {
	Seeds    json.RawMessage `json:"seeds"`
	Cosmetic json.RawMessage `json:"cosmetic"`
	Gear     json.RawMessage `json:"gear"`
	Eggs     json.RawMessage `json:"eggs"`
	Weather  json.RawMessage `json:"weather"`
}

type weather struct {
	Type     json.RawMessage `json:"type"`
	Duration json.RawMessage `json:"duration"`
}

type egg struct {
	Name     string          `json:"name"`
	Quantity json.RawMessage `json:"quantity"`
}

// NormalizeGarden reads the first entry of "data": quantity maps become
// name/amount pairs with positive amounts, eggs keep quantity > 0 and the
// weather falls back to "Unknown".
func NormalizeGarden(payload []byte) (any, bool) {
	entries, ok := list(payload)
	if !ok || len(entries) == 0 || provider.IsNull(entries[0]) {
		return nil, false
	}
	var e gardenEntry
	if err := json.Unmarshal(entries[0], &e); err != nil {
		return nil, false
	}

	out := provider.GardenStock{
		Seed:     quantities(e.Seeds),
		Cosmetic: quantities(e.Cosmetic),
		Gear:     quantities(e.Gear),
		Eggs:     eggs(e.Eggs),
	}
	w := provider.Weather{Weather: unknown, Duration: unknown}
	var raw weather
	if err := json.Unmarshal(e.Weather, &raw); err == nil {
		if s := scalar(raw.Type); s != "" {
			w.Weather = s
		}
		if s := scalar(raw.Duration); s != "" {
			w.Duration = s
		}
	}
	out.Weather = w
	return out, true
}

// quantities converts {"Carrot": "12"} into pairs, preserving upstream order.
// Anything that is not an object yields an empty list.
func quantities(raw json.RawMessage) []provider.Item {
	out := []provider.Item{}
	fields, ok := provider.OrderedObject(raw)
	if !ok {
		return out
	}
	for _, f := range fields {
		n, ok := provider.LeadingInt(f.Value)
		if !ok || n <= 0 {
			continue
		}
		out = append(out, provider.Item{Name: f.Key, Amount: n})
	}
	return out
}

func eggs(raw json.RawMessage) []provider.Item {
	out := []provider.Item{}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return out
	}
	for _, el := range list {
		var e egg
		if err := json.Unmarshal(el, &e); err != nil {
			continue
		}
		q, ok := provider.Number(e.Quantity)
		if !ok || q <= 0 {
			continue
		}
		out = append(out, provider.Item{Name: e.Name, Amount: int(q)})
	}
	return out
}

// scalar renders a JSON string or number as text; anything falsy is "".
func scalar(raw json.RawMessage) string {
	if !provider.Truthy(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

type session struct {
	Normal json.RawMessage `json:"normalStock"`
	Mirage json.RawMessage `json:"mirageStock"`
}

type stockItem struct {
	Name   json.RawMessage `json:"name"`
	OnSale json.RawMessage `json:"onSale"`
}

// NormalizeFruits collects the on-sale fruit names of every session, once per
// stock, in order of first appearance.
func NormalizeFruits(payload []byte) (any, bool) {
	sessions, ok := list(payload)
	if !ok {
		return nil, false
	}
	normal := newOrderedSet()
	mirage := newOrderedSet()
	for _, raw := range sessions {
		var s session
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		collectOnSale(s.Normal, normal)
		collectOnSale(s.Mirage, mirage)
	}
	return provider.FruitStock{Normal: normal.items, Mirage: mirage.items}, true
}

func collectOnSale(raw json.RawMessage, into *orderedSet) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return
	}
	for _, el := range items {
		var it stockItem
		if err := json.Unmarshal(el, &it); err != nil {
			continue
		}
		var name string
		if err := json.Unmarshal(it.Name, &name); err != nil || name == "" {
			continue
		}
		if provider.Truthy(it.OnSale) {
			into.add(name)
		}
	}
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}, items: []string{}}
}

func (s *orderedSet) add(v string) {
	if _, dup := s.seen[v]; dup {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
