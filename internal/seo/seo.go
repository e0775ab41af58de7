// Package seo builds the per-product metadata the frontend injects into
// page heads. Built once per warm run from the product list and cached,
// so product pages render meta tags without a live backend call.
package seo

import (
	"strings"
	"unicode"

	"storefront-bff/internal/model"
)

// maxDescriptionLen is the meta description budget; search engines
// truncate around 155-160 characters.
const maxDescriptionLen = 155

// ProductMeta is the SEO head data for one product page.
type ProductMeta struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url"`
}

// BuildProductMeta derives head metadata for one product. siteURL is the
// storefront origin without a trailing slash; siteName suffixes the title.
func BuildProductMeta(p model.ProductSummary, siteURL, siteName string) ProductMeta {
	title := p.Name
	if siteName != "" {
		title = p.Name + " | " + siteName
	}
	return ProductMeta{
		Slug:        p.Slug,
		Title:       title,
		Description: Describe(p),
		Image:       p.Image,
		URL:         siteURL + "/product/" + p.Slug,
	}
}

// Describe produces the meta description: the product description with
// markup stripped, truncated on a word boundary, falling back to a
// name-based stock line when the product has none.
func Describe(p model.ProductSummary) string {
	desc := stripTags(p.Description)
	if desc == "" {
		desc = "Shop " + p.Name + " with fast shipping and easy returns."
	}
	return truncate(desc, maxDescriptionLen)
}

// stripTags removes HTML tags and collapses whitespace. Product
// descriptions come from the WordPress editor and are full of markup.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// truncate cuts s to at most n runes, backing up to the previous word
// boundary and appending an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := n - 1
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = n - 1
	}
	return strings.TrimRight(string(runes[:cut]), " ,.;:") + "…"
}
