package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"medstock/m/domain"
)

type saleCodec struct{}

func (saleCodec) Header() []string {
	return []string{"Item ID", "Item Name", "Quantity", "Date", "Time"}
}

func (saleCodec) Encode(s domain.Sale) []string {
	return []string{s.ItemID, s.ItemName, strconv.Itoa(s.Quantity), s.Date.String(), s.Time}
}

func (saleCodec) Decode(row []string) (domain.Sale, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return domain.Sale{}, fmt.Errorf("quantity %q is not an integer", row[2])
	}
	if qty <= 0 {
		return domain.Sale{}, fmt.Errorf("quantity %d is not positive", qty)
	}
	date, err := domain.ParseCanonicalDate(strings.TrimSpace(row[3]))
	if err != nil {
		return domain.Sale{}, err
	}
	if _, err := time.Parse(domain.TimeLayout, strings.TrimSpace(row[4])); err != nil {
		return domain.Sale{}, fmt.Errorf("time %q is not HH:MM:SS", row[4])
	}
	return domain.Sale{
		ItemID:   strings.TrimSpace(row[0]),
		ItemName: row[1],
		Quantity: qty,
		Date:     date,
		Time:     strings.TrimSpace(row[4]),
	}, nil
}
