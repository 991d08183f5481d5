// Package fandom parses the Blox Fruits stock template out of the wiki
// page source.
package fandom

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fioso/internal/provider"
)

// StockURL is the edit view of the stock page; it embeds the raw wikitext.
const StockURL = "https://blox-fruits.fandom.com/wiki/Blox_Fruits_Stock?action=edit"

var (
	templateRE = regexp.MustCompile(`(?s)\{\{Stock/Main.+?\}\}`)
	fieldREs   = map[string]*regexp.Regexp{
		"Current": fieldRE("Current"),
		"Last":    fieldRE("Last"),
		"Before":  fieldRE("Before"),
	}
)

// fieldRE matches "|Key = value" up to the next pipe, newline or closing brace.
// The value may start on the line after the "=".
func fieldRE(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\|` + key + `\s*=\s*([^|\n}]*)`)
}

// StockEntry registers the wiki page as a text source.
func StockEntry() provider.Entry {
	return provider.Entry{
		Request: provider.Request{
			URL:     StockURL,
			Headers: map[string]string{"User-Agent": "Mozilla/5.0"},
		},
		Format:    provider.FormatText,
		Normalize: NormalizeWiki,
	}
}

// NormalizeWiki extracts the {{Stock/Main}} template and its Current, Last and
// Before lists. Edit-page HTML is unwrapped to its wikitext first.
func NormalizeWiki(payload []byte) (any, bool) {
	text := Wikitext(payload)
	block := templateRE.FindString(text)
	if block == "" {
		return nil, false
	}
	return provider.WikiStock{
		Current:    extract(block, "Current"),
		Last:       extract(block, "Last"),
		BeforeLast: extract(block, "Before"),
	}, true
}

// Wikitext returns the content of the MediaWiki edit box when body is an edit
// page, and body itself otherwise.
func Wikitext(body []byte) string {
	if !bytes.Contains(body, []byte("wpTextbox1")) {
		return string(body)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	box := doc.Find("textarea#wpTextbox1")
	if box.Length() == 0 {
		return string(body)
	}
	return box.First().Text()
}

func extract(block, key string) []string {
	out := []string{}
	m := fieldREs[key].FindStringSubmatch(block)
	if m == nil {
		return out
	}
	for _, part := range strings.Split(m[1], ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
