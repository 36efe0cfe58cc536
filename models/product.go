package models

import "time"

// Product is the structured extraction result of a completed task.
// Created exactly once per successful extraction; immutable thereafter.
type Product struct {
	ClientName string `json:"client_name"`
	Category   string `json:"category"`
	TaskID     string `json:"task_id"`

	Title string `json:"title"`

	// Price is the parsed numeric price. When the page shows price text that
	// does not parse as a number (e.g. "Contact for price"), Price stays 0
	// and RawPrice keeps the verbatim text.
	Price    float64 `json:"price"`
	RawPrice string  `json:"raw_price,omitempty"`

	// Images is the ordered, deduplicated list of gallery image URLs.
	Images []string `json:"images"`

	// AboutThisItem holds the descriptive bullets in document order.
	AboutThisItem []string `json:"about_this_item"`

	// Colors and Sizes contain the variant labels found on the page,
	// or the single sentinel "N/A" when none were found.
	Colors []string `json:"colors"`
	Sizes  []string `json:"sizes"`

	ProductURL string `json:"product_url"`

	// RelatedLinks is the deduplicated set of product-detail URLs linked
	// from the page, query strings stripped. Order is not guaranteed.
	RelatedLinks []string `json:"related_links"`

	ScrapedAt time.Time `json:"scraped_at"`
}
