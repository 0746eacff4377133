package insights

import (
	"sort"

	"balancoffee/pos/internal/domain"
)

// ItemStat aggregates one menu item across a set of orders.
type ItemStat struct {
	ID       int
	Name     string
	Quantity int
	Revenue  int64
}

// Pairing counts how often two distinct items appeared on the same
// order. A and B are ordered alphabetically so each pair has one
// canonical form.
type Pairing struct {
	A     string
	B     string
	Count int
}

// TopSellers ranks menu items by quantity sold across the given
// orders, revenue and then name breaking ties. limit <= 0 returns the
// full ranking.
func TopSellers(orders []domain.OrderHistoryRecord, limit int) []ItemStat {
	byID := make(map[int]*ItemStat)
	for _, order := range orders {
		for _, line := range order.Items {
			if line.Quantity < 1 {
				continue
			}
			stat, ok := byID[line.ID]
			if !ok {
				stat = &ItemStat{ID: line.ID, Name: line.Name}
				byID[line.ID] = stat
			}
			stat.Quantity += line.Quantity
			stat.Revenue += line.LineTotal()
		}
	}

	ranked := make([]ItemStat, 0, len(byID))
	for _, stat := range byID {
		ranked = append(ranked, *stat)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].Name < ranked[j].Name
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// BestSeller returns the single top item, false when there are no
// order lines at all.
func BestSeller(orders []domain.OrderHistoryRecord) (ItemStat, bool) {
	ranked := TopSellers(orders, 1)
	if len(ranked) == 0 {
		return ItemStat{}, false
	}
	return ranked[0], true
}

// Pairings ranks item combinations by how often they were ordered
// together. Quantity within an order does not matter, only
// co-occurrence on the same order.
func Pairings(orders []domain.OrderHistoryRecord, limit int) []Pairing {
	type key struct{ a, b string }
	counts := make(map[key]int)

	for _, order := range orders {
		names := make([]string, 0, len(order.Items))
		seen := make(map[string]struct{}, len(order.Items))
		for _, line := range order.Items {
			if _, dup := seen[line.Name]; dup {
				continue
			}
			seen[line.Name] = struct{}{}
			names = append(names, line.Name)
		}
		sort.Strings(names)
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				counts[key{a: names[i], b: names[j]}]++
			}
		}
	}

	ranked := make([]Pairing, 0, len(counts))
	for k, count := range counts {
		ranked = append(ranked, Pairing{A: k.a, B: k.b, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if ranked[i].A != ranked[j].A {
			return ranked[i].A < ranked[j].A
		}
		return ranked[i].B < ranked[j].B
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RevenueByHour buckets order revenue into the 24 hours of the day,
// local to each order's timestamp.
func RevenueByHour(orders []domain.OrderHistoryRecord) [24]int64 {
	var buckets [24]int64
	for _, order := range orders {
		buckets[order.Timestamp.Hour()] += order.Total
	}
	return buckets
}
