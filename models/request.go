package models

// SubmitTaskRequest is the payload for POST /api/v1/tasks.
type SubmitTaskRequest struct {
	ClientName string `json:"client_name" binding:"required"`
	Category   string `json:"category" binding:"required"`

	// URL is the product page to scrape. Required, must be well-formed.
	URL string `json:"url" binding:"required,url"`
}

// RegisterClientRequest is the payload for POST /api/v1/clients.
type RegisterClientRequest struct {
	ClientName  string `json:"client_name" binding:"required"`
	ClientEmail string `json:"client_email" binding:"required,email"`
}

// TaskFilter narrows task listings. Zero-value fields match everything.
type TaskFilter struct {
	ClientName string
	Status     TaskStatus
	Category   string
}

// ProductFilter narrows product listings. Nil price bounds are open-ended;
// the range applies to the parsed numeric price only.
type ProductFilter struct {
	ClientName string
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
}
