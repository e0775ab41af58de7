package sitemap

import (
	"strings"
	"testing"

	"storefront-bff/internal/model"
)

func TestBuildOrdersEntries(t *testing.T) {
	products := []model.ProductSummary{
		{Slug: "street-deck-8", ModifiedAt: "2026-07-14T10:22:00Z"},
		{Slug: "soft-wheels", ModifiedAt: "not a timestamp"},
	}
	categories := []model.CategorySummary{{Slug: "decks"}}

	entries := Build("https://shop.example.com", products, categories)

	if len(entries) != len(staticPages)+3 {
		t.Fatalf("entries = %d, want %d", len(entries), len(staticPages)+3)
	}
	if entries[0].Loc != "https://shop.example.com/" {
		t.Errorf("first entry = %q, want the home page", entries[0].Loc)
	}

	var deck, wheels, category *Entry
	for i := range entries {
		switch entries[i].Loc {
		case "https://shop.example.com/product/street-deck-8":
			deck = &entries[i]
		case "https://shop.example.com/product/soft-wheels":
			wheels = &entries[i]
		case "https://shop.example.com/product-category/decks":
			category = &entries[i]
		}
	}
	if deck == nil || wheels == nil || category == nil {
		t.Fatal("missing expected entries")
	}
	if deck.LastMod != "2026-07-14" {
		t.Errorf("lastmod = %q, want date form", deck.LastMod)
	}
	if wheels.LastMod != "" {
		t.Errorf("unparseable timestamp must yield empty lastmod, got %q", wheels.LastMod)
	}
}

func TestRenderProducesValidURLSet(t *testing.T) {
	entries := Build("https://shop.example.com",
		[]model.ProductSummary{{Slug: "street-deck-8", ModifiedAt: "2026-07-14T10:22:00Z"}}, nil)

	body, err := Render(entries)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	xml := string(body)

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`,
		"<loc>https://shop.example.com/product/street-deck-8</loc>",
		"<lastmod>2026-07-14</lastmod>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("rendered sitemap missing %q", want)
		}
	}
	if strings.Contains(xml, "<lastmod></lastmod>") {
		t.Error("empty lastmod elements must be omitted")
	}
}
