// Package store holds the static (domain, provider) table of game-stock
// upstreams and the dispatcher that fetches and normalizes them.
package store

import (
	"sort"

	"fioso/internal/provider"
	"fioso/internal/provider/fandom"
	"fioso/internal/provider/gamersberg"
	"fioso/internal/provider/growgarden"
)

// Registered domains.
const (
	DomainGarden  = "GAG"
	DomainFruits  = "BLOXFRUIT"
	DomainWeather = "WEATHER"
)

// Registered provider keys.
const (
	ProviderGrowGarden = "GROWGARDENGG"
	ProviderGamersberg = "GAMERBERGS"
	ProviderFandom     = "FANDOM"
)

// Table maps domain -> provider key -> entry. Keys are stored uppercased.
type Table map[string]map[string]provider.Entry

// Pair identifies one registered entry.
type Pair struct {
	Domain   string `json:"type"`
	Provider string `json:"apitype"`
}

// DefaultTable returns the built-in provider registrations.
func DefaultTable() Table {
	return Table{
		DomainGarden: {
			ProviderGrowGarden: growgarden.StockEntry(),
			ProviderGamersberg: gamersberg.GardenEntry(),
		},
		DomainFruits: {
			ProviderGamersberg: gamersberg.FruitsEntry(),
			ProviderFandom:     fandom.StockEntry(),
		},
		DomainWeather: {
			ProviderGrowGarden: growgarden.WeatherEntry(),
		},
	}
}

// Lookup finds the entry for an already-normalized pair.
func (t Table) Lookup(domain, key string) (provider.Entry, bool) {
	entries, ok := t[domain]
	if !ok {
		return provider.Entry{}, false
	}
	e, ok := entries[key]
	return e, ok
}

// Available lists every registered provider key per domain, sorted.
func (t Table) Available() map[string][]string {
	out := make(map[string][]string, len(t))
	for domain, entries := range t {
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out[domain] = keys
	}
	return out
}

// Pairs returns every registered pair ordered by domain, then provider.
func (t Table) Pairs() []Pair {
	domains := make([]string, 0, len(t))
	for d := range t {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	avail := t.Available()
	var out []Pair
	for _, d := range domains {
		for _, k := range avail[d] {
			out = append(out, Pair{Domain: d, Provider: k})
		}
	}
	return out
}
