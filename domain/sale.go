package domain

// Sale is an immutable record of one completed sale.
type Sale struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
	Date     Date   `json:"date"`
	Time     string `json:"time"`
}
