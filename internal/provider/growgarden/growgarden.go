// Package growgarden normalizes the growagarden.gg stock and weather feeds.
package growgarden

import (
	"encoding/json"
	"strings"

	"fioso/internal/provider"
)

const (
	StockURL   = "https://growagarden.gg/api/stock"
	WeatherURL = "https://growagarden.gg/api/weather"
)

// weatherNames is the closed set of weather events tracked in "lastSeen".
var weatherNames = map[string]struct{}{
	"rain":           {},
	"windy":          {},
	"heatwave":       {},
	"tornado":        {},
	"thunderstorm":   {},
	"auroraborealis": {},
	"sungod":         {},
}

// StockEntry registers the stock feed.
func StockEntry() provider.Entry {
	return provider.Entry{
		Request:   provider.Request{URL: StockURL, Headers: map[string]string{}},
		Format:    provider.FormatJSON,
		Normalize: NormalizeStock,
	}
}

// WeatherEntry registers the weather feed.
func WeatherEntry() provider.Entry {
	return provider.Entry{
		Request:   provider.Request{URL: WeatherURL, Headers: map[string]string{}},
		Format:    provider.FormatJSON,
		Normalize: NormalizeWeather,
	}
}

type stockPayload struct {
	Seeds     json.RawMessage `json:"seedsStock"`
	Cosmetics json.RawMessage `json:"cosmeticsStock"`
	Gear      json.RawMessage `json:"gearStock"`
	Eggs      json.RawMessage `json:"eggStock"`
	LastSeen  json.RawMessage `json:"lastSeen"`
}

type valueItem struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// NormalizeStock renames "value" to "amount" for seeds and eggs, passes the
// cosmetic and gear rows through untouched and keeps only weather sightings
// from "lastSeen".
func NormalizeStock(payload []byte) (any, bool) {
	if provider.IsNull(payload) {
		return nil, false
	}
	var p stockPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false
	}
	if p.Seeds == nil && p.Cosmetics == nil && p.Gear == nil && p.Eggs == nil && p.LastSeen == nil {
		return nil, false
	}

	var out provider.GardenStock
	var ok bool
	if out.Seed, ok = items(p.Seeds); !ok {
		return nil, false
	}
	out.Cosmetic = verbatim(p.Cosmetics)
	out.Gear = verbatim(p.Gear)
	if out.Eggs, ok = items(p.Eggs); !ok {
		return nil, false
	}
	weather, ok := sightings(p.LastSeen)
	if !ok {
		return nil, false
	}
	out.Weather = weather
	return out, true
}

// NormalizeWeather filters a sighting list down to weather events. The feed is
// either the list itself or an object carrying it under "lastSeen".
func NormalizeWeather(payload []byte) (any, bool) {
	if provider.IsNull(payload) {
		return nil, false
	}
	if fields, isObj := provider.OrderedObject(payload); isObj {
		for _, f := range fields {
			if f.Key == "lastSeen" {
				return sightingsStrict(f.Value)
			}
		}
		return nil, false
	}
	return sightingsStrict(payload)
}

func sightingsStrict(raw json.RawMessage) (any, bool) {
	if provider.IsNull(raw) {
		return nil, false
	}
	s, ok := sightings(raw)
	if !ok {
		return nil, false
	}
	return s, true
}

func items(raw json.RawMessage) ([]provider.Item, bool) {
	out := []provider.Item{}
	if provider.IsNull(raw) {
		return out, true
	}
	var list []valueItem
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	for _, it := range list {
		amount := 0
		if !provider.IsNull(it.Value) {
			f, ok := provider.Number(it.Value)
			if !ok {
				return nil, false
			}
			amount = int(f)
		}
		out = append(out, provider.Item{Name: it.Name, Amount: amount})
	}
	return out, true
}

// verbatim returns raw unchanged, or an empty list when it is missing or falsy.
func verbatim(raw json.RawMessage) any {
	if !provider.Truthy(raw) {
		return []any{}
	}
	return raw
}

func sightings(raw json.RawMessage) ([]provider.Sighting, bool) {
	out := []provider.Sighting{}
	if provider.IsNull(raw) {
		return out, true
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	for _, el := range list {
		var s provider.Sighting
		if err := json.Unmarshal(el, &s); err != nil || s == nil {
			continue
		}
		if _, ok := weatherNames[strings.ToLower(s.Name())]; ok {
			out = append(out, s)
		}
	}
	return out, true
}
