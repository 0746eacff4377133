package catalog

import (
	"slices"

	"balancoffee/pos/internal/domain"
)

// Provider exposes a read-only ordered menu. It is built once at startup;
// nothing here mutates after construction.
type Provider struct {
	items []domain.MenuItem
	byID  map[int]domain.MenuItem
}

// CategoryAll selects every menu item regardless of category.
const CategoryAll = "all"

func FromItems(items []domain.MenuItem) *Provider {
	p := &Provider{
		items: make([]domain.MenuItem, len(items)),
		byID:  make(map[int]domain.MenuItem, len(items)),
	}
	copy(p.items, items)
	for _, item := range p.items {
		p.byID[item.ID] = item
	}
	return p
}

// Default returns the seeded café menu.
func Default() *Provider {
	return FromItems(seedMenu)
}

func (p *Provider) Items() []domain.MenuItem {
	out := make([]domain.MenuItem, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Provider) Len() int {
	return len(p.items)
}

func (p *Provider) ByID(id int) (domain.MenuItem, bool) {
	item, ok := p.byID[id]
	return item, ok
}

// ByCategory returns the items in a category, preserving menu order.
// An empty category or CategoryAll returns the full menu.
func (p *Provider) ByCategory(category string) []domain.MenuItem {
	if category == "" || category == CategoryAll {
		return p.Items()
	}
	out := make([]domain.MenuItem, 0, len(p.items))
	for _, item := range p.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen menu order.
func (p *Provider) Categories() []string {
	out := make([]string, 0, 8)
	for _, item := range p.items {
		if !slices.Contains(out, item.Category) {
			out = append(out, item.Category)
		}
	}
	return out
}

// CategoryCounts maps each category to its number of items.
func (p *Provider) CategoryCounts() map[string]int {
	counts := make(map[string]int, 8)
	for _, item := range p.items {
		counts[item.Category]++
	}
	return counts
}

var seedMenu = []domain.MenuItem{
	{ID: 1, Name: "Cà phê đen", Description: "Cà phê đen truyền thống, đậm đà hương vị Việt Nam", Price: 25000, Category: "cafe-viet"},
	{ID: 2, Name: "Cà phê sữa", Description: "Cà phê đen kết hợp với sữa đặc ngọt ngào", Price: 30000, Category: "cafe-viet"},
	{ID: 3, Name: "Bạc xỉu", Description: "Cà phê sữa nhạt, thơm ngon dễ uống", Price: 35000, Category: "cafe-viet"},
	{ID: 4, Name: "Cà phê dừa", Description: "Cà phê đen với nước cốt dừa thơm béo", Price: 38000, Category: "cafe-viet"},
	{ID: 5, Name: "Espresso", Description: "Cà phê Ý nguyên chất, đậm đà", Price: 35000, Category: "cafe-y"},
	{ID: 6, Name: "Americano", Description: "Espresso pha loãng với nước nóng", Price: 40000, Category: "cafe-y"},
	{ID: 7, Name: "Cappuccino", Description: "Espresso với lớp foam sữa mịn màng", Price: 45000, Category: "cafe-y"},
	{ID: 8, Name: "Latte", Description: "Espresso với sữa nóng và một chút foam", Price: 50000, Category: "cafe-y"},
	{ID: 9, Name: "Macchiato", Description: "Espresso với một chút sữa foam", Price: 48000, Category: "cafe-y"},
	{ID: 10, Name: "Trà đào", Description: "Trà xanh tươi mát với hương vị đào tự nhiên", Price: 35000, Category: "tra-trai-cay"},
	{ID: 11, Name: "Trà chanh", Description: "Trà đen kết hợp chanh tươi chua ngọt", Price: 30000, Category: "tra-trai-cay"},
	{ID: 12, Name: "Trà vải", Description: "Trà xanh với vải tươi ngọt mát", Price: 38000, Category: "tra-trai-cay"},
	{ID: 13, Name: "Trà dâu", Description: "Trà xanh với dâu tây tươi", Price: 40000, Category: "tra-trai-cay"},
	{ID: 14, Name: "Trà xoài", Description: "Trà xanh với xoài tươi ngọt", Price: 42000, Category: "tra-trai-cay"},
	{ID: 15, Name: "Matcha latte", Description: "Matcha nguyên chất với sữa tươi", Price: 55000, Category: "khac"},
	{ID: 16, Name: "Matcha đá xay", Description: "Matcha đá xay mát lạnh", Price: 50000, Category: "khac"},
	{ID: 17, Name: "Matcha trân châu", Description: "Matcha latte với trân châu đen", Price: 58000, Category: "khac"},
	{ID: 18, Name: "Matcha đậu đỏ", Description: "Matcha với đậu đỏ ngọt ngào", Price: 60000, Category: "khac"},
	{ID: 19, Name: "Soda chanh", Description: "Soda chanh sảng khoái, giải khát", Price: 25000, Category: "khac"},
	{ID: 20, Name: "Soda blue hawaii", Description: "Soda xanh với syrup blue curacao", Price: 35000, Category: "khac"},
	{ID: 21, Name: "Soda dâu", Description: "Soda với syrup dâu tươi", Price: 32000, Category: "khac"},
	{ID: 22, Name: "Soda cam", Description: "Soda với cam tươi ngọt mát", Price: 30000, Category: "khac"},
	{ID: 23, Name: "Chocolate nóng", Description: "Chocolate đậm đà, ngọt ngào", Price: 40000, Category: "khac"},
	{ID: 24, Name: "Chocolate đá", Description: "Chocolate lạnh với đá viên", Price: 38000, Category: "khac"},
	{ID: 25, Name: "Mocha", Description: "Cà phê kết hợp chocolate", Price: 48000, Category: "khac"},
	{ID: 26, Name: "Hot chocolate trân châu", Description: "Chocolate nóng với trân châu đen", Price: 45000, Category: "khac"},
}
