package wpgraphql

import (
	"context"

	"storefront-bff/internal/model"
)

// scriptDataPageSize bounds the single-page product/category fetch. The
// catalog is a few hundred SKUs; paging can come back if it outgrows this.
const scriptDataPageSize = 500

type scriptDataEnvelope struct {
	Products struct {
		Nodes []struct {
			DatabaseID       int    `json:"databaseId"`
			Slug             string `json:"slug"`
			Name             string `json:"name"`
			Price            string `json:"price"`
			ShortDescription string `json:"shortDescription"`
			Image            struct {
				SourceURL string `json:"sourceUrl"`
			} `json:"image"`
			Modified string `json:"modified"`
		} `json:"nodes"`
	} `json:"products"`
	ProductCategories struct {
		Nodes []struct {
			Slug  string `json:"slug"`
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"nodes"`
	} `json:"productCategories"`
}

// ScriptData fetches the published product and category lists in one round
// trip. Feeds the cache warmer, sitemap builder and SEO meta generation.
func (c *Client) ScriptData(ctx context.Context) ([]model.ProductSummary, []model.CategorySummary, error) {
	var envelope scriptDataEnvelope
	_, err := c.do(ctx, "", queryScriptData, map[string]any{"first": scriptDataPageSize}, &envelope)
	if err != nil {
		return nil, nil, err
	}

	products := make([]model.ProductSummary, 0, len(envelope.Products.Nodes))
	for _, node := range envelope.Products.Nodes {
		products = append(products, model.ProductSummary{
			ID:          node.DatabaseID,
			Slug:        node.Slug,
			Name:        node.Name,
			Price:       node.Price,
			Description: node.ShortDescription,
			Image:       node.Image.SourceURL,
			ModifiedAt:  node.Modified,
		})
	}

	categories := make([]model.CategorySummary, 0, len(envelope.ProductCategories.Nodes))
	for _, node := range envelope.ProductCategories.Nodes {
		categories = append(categories, model.CategorySummary{
			Slug:  node.Slug,
			Name:  node.Name,
			Count: node.Count,
		})
	}

	return products, categories, nil
}
