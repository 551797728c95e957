package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"medstock/m/domain"
)

// itemCodec maps items to rows of ID, Name, Quantity, Expiration Date.
type itemCodec struct{}

func (itemCodec) Header() []string {
	return []string{"ID", "Name", "Quantity", "Expiration Date"}
}

func (itemCodec) Encode(it domain.Item) []string {
	return []string{it.ID, it.Name, strconv.Itoa(it.Quantity), it.ExpirationDate.String()}
}

func (itemCodec) Decode(row []string) (domain.Item, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return domain.Item{}, fmt.Errorf("quantity %q is not an integer", row[2])
	}
	if qty < 0 {
		return domain.Item{}, fmt.Errorf("quantity %d is negative", qty)
	}
	exp, err := ParseDate(row[3])
	if err != nil {
		return domain.Item{}, fmt.Errorf("expiration date %q is not a date", row[3])
	}
	return domain.Item{
		ID:             NormalizeID(row[0]),
		Name:           row[1],
		Quantity:       qty,
		ExpirationDate: exp,
	}, nil
}
