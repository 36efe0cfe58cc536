package models

import "time"

// Client is a registered consumer of the scrape service.
// ClientEmail is the unique key; duplicate registration is rejected.
type Client struct {
	ID           string    `json:"client_id"`
	ClientName   string    `json:"client_name"`
	ClientEmail  string    `json:"client_email"`
	RegisteredAt time.Time `json:"registered_at"`
}
