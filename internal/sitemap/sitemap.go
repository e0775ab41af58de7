// Package sitemap renders the storefront's XML sitemap from warmed
// catalog data.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"time"

	"storefront-bff/internal/model"
)

// Entry is one sitemap URL. LastMod is RFC 3339 or empty.
type Entry struct {
	Loc      string `json:"loc"`
	LastMod  string `json:"lastMod,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// staticPages are the non-catalog pages every sitemap carries. Paths are
// joined with the site URL at build time.
var staticPages = []Entry{
	{Loc: "/", Priority: "1.0"},
	{Loc: "/products", Priority: "0.9"},
	{Loc: "/categories", Priority: "0.8"},
	{Loc: "/contact", Priority: "0.5"},
}

// Build assembles the sitemap entries: static pages, then category pages,
// then product pages with last-modified dates from the catalog.
func Build(siteURL string, products []model.ProductSummary, categories []model.CategorySummary) []Entry {
	entries := make([]Entry, 0, len(staticPages)+len(categories)+len(products))

	for _, page := range staticPages {
		entries = append(entries, Entry{
			Loc:      siteURL + page.Loc,
			Priority: page.Priority,
		})
	}
	for _, c := range categories {
		entries = append(entries, Entry{
			Loc:      siteURL + "/product-category/" + c.Slug,
			Priority: "0.7",
		})
	}
	for _, p := range products {
		entries = append(entries, Entry{
			Loc:      siteURL + "/product/" + p.Slug,
			LastMod:  normalizeLastMod(p.ModifiedAt),
			Priority: "0.8",
		})
	}
	return entries
}

// normalizeLastMod reduces an RFC 3339 timestamp to the date form search
// engines expect; anything unparseable is dropped rather than emitted
// malformed.
func normalizeLastMod(modifiedAt string) string {
	if modifiedAt == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, modifiedAt)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []urlXML `xml:"url"`
}

type urlXML struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
}

// Render serializes entries as a sitemap XML document.
func Render(entries []Entry) ([]byte, error) {
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]urlXML, 0, len(entries)),
	}
	for _, e := range entries {
		set.URLs = append(set.URLs, urlXML{
			Loc:      e.Loc,
			LastMod:  e.LastMod,
			Priority: e.Priority,
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
