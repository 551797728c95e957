package sales

import (
	"slices"

	"medstock/m/domain"
)

// ItemTotal is the number of units sold for one item.
type ItemTotal struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Units    int    `json:"units"`
	Sales    int    `json:"sales"`
}

// Summary aggregates a range of sales.
type Summary struct {
	Sales  int         `json:"sales_count"`
	Units  int         `json:"units"`
	ByItem []ItemTotal `json:"by_item"`
}

// Summarize totals the sales dated within [from, to]. Items are ordered by
// units sold, most first, ties by item id. The name is the one of the
// latest sale for that item.
func (l *Ledger) Summarize(from, to *domain.Date) Summary {
	sum := Summary{ByItem: []ItemTotal{}}
	index := make(map[string]int)
	for _, s := range l.Between(from, to) {
		sum.Sales++
		sum.Units += s.Quantity
		i, ok := index[s.ItemID]
		if !ok {
			i = len(sum.ByItem)
			index[s.ItemID] = i
			sum.ByItem = append(sum.ByItem, ItemTotal{ItemID: s.ItemID})
		}
		sum.ByItem[i].ItemName = s.ItemName
		sum.ByItem[i].Units += s.Quantity
		sum.ByItem[i].Sales++
	}
	slices.SortStableFunc(sum.ByItem, func(a, b ItemTotal) int {
		if a.Units != b.Units {
			return b.Units - a.Units
		}
		if a.ItemID < b.ItemID {
			return -1
		}
		if a.ItemID > b.ItemID {
			return 1
		}
		return 0
	})
	return sum
}
