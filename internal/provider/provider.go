package provider

import (
	"strings"
)

// Item is the normalized {name, amount} pair shared by the stock normalizers.
type Item struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// Format tells the dispatcher how to turn a response body into a payload.
type Format int

const (
	// FormatJSON requires the body (or its Subfield) to be valid JSON.
	FormatJSON Format = iota
	// FormatText hands the raw body to the normalizer untouched.
	FormatText
)

// Request is the fixed upstream request of an Entry.
type Request struct {
	URL     string
	Headers map[string]string
}

// Normalizer maps one upstream payload into its domain shape.
// It must not panic; ok=false means the payload did not have the expected shape.
type Normalizer func(payload []byte) (result any, ok bool)

// Entry describes one (domain, provider) registration.
type Entry struct {
	Request   Request
	Subfield  string // optional top-level JSON field to extract before normalizing
	Format    Format
	Normalize Normalizer
}

// Status is the outcome category of a single call.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusFailData      Status = "fail_data"
	StatusError         Status = "error"
	StatusInvalid       Status = "invalid"
	StatusTimeout       Status = "timeout"
	StatusResponseError Status = "response_error"
)

// Code is the machine-readable error kind attached to a non-successful Outcome.
type Code string

const (
	CodeInvalid        Code = "invalid_request"
	CodeNoData         Code = "no_data"
	CodeFetch          Code = "fetch_failed"
	CodeTimeout        Code = "timeout"
	CodeBadResponse    Code = "bad_response"
	CodeNetworkOffline Code = "network_offline"
	CodeUnstable       Code = "unstable"
	CodeNotCallable    Code = "not_callable"
)

// Outcome is the uniform result envelope of a dispatch or probe.
// It is built fresh per call and never returned alongside a Go error.
type Outcome struct {
	Domain    string              `json:"type,omitempty"`
	Provider  string              `json:"apitype,omitempty"`
	Status    Status              `json:"status"`
	TimeMS    int64               `json:"time"`
	Sample    any                 `json:"sample,omitempty"`
	Code      Code                `json:"code,omitempty"`
	Message   string              `json:"message,omitempty"`
	Available map[string][]string `json:"available,omitempty"`
}

// OK reports whether the outcome counts as healthy for a stability check.
// A response_error still proves the upstream is reachable.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess || o.Status == StatusResponseError
}

// Name returns "DOMAIN/PROVIDER", or whichever half is set.
func (o Outcome) Name() string {
	switch {
	case o.Domain != "" && o.Provider != "":
		return o.Domain + "/" + o.Provider
	case o.Domain != "":
		return o.Domain
	default:
		return o.Provider
	}
}

// GardenStock is the normalized Grow a Garden shop rotation.
// Cosmetic and Gear are upstream rows kept verbatim for growagarden.gg and
// []Item for gamersberg. Weather is []Sighting for growagarden.gg and Weather
// for gamersberg.
type GardenStock struct {
	Seed     []Item `json:"seed"`
	Cosmetic any    `json:"cosmetic"`
	Gear     any    `json:"gear"`
	Eggs     []Item `json:"eggs"`
	Weather  any    `json:"weather"`
}

// Weather is the current weather as reported by gamersberg.
type Weather struct {
	Weather  string `json:"weather"`
	Duration string `json:"duration"`
}

// Sighting is one upstream "last seen" record, kept verbatim.
type Sighting map[string]any

// Name returns the record's name field, or "" when absent.
func (s Sighting) Name() string {
	n, _ := s["name"].(string)
	return n
}

// FruitStock is the deduplicated Blox Fruits dealer stock.
type FruitStock struct {
	Normal []string `json:"normal"`
	Mirage []string `json:"mirage"`
}

// WikiStock is the stock rotation parsed out of the Blox Fruits wiki template.
type WikiStock struct {
	Current    []string `json:"current"`
	Last       []string `json:"last"`
	BeforeLast []string `json:"before_last"`
}

// Key normalizes a domain or provider key for lookup.
func Key(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
