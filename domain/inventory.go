package domain

// Item is one stock-keeping entry for a pharmacy product.
type Item struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	ExpirationDate Date   `json:"expiration_date"`
}
