// Package menu filters the live menu by the category a diner has selected.
package menu

import (
	"sort"
	"strings"

	"github.com/example/qrdine/pkg/models"
)

// AllCategories selects every item.
const AllCategories = "all"

// Filter returns the items in category, or all items for AllCategories or "".
// The input slice is not modified.
func Filter(items []models.MenuItem, category string) []models.MenuItem {
	if category == "" || category == AllCategories {
		out := make([]models.MenuItem, len(items))
		copy(out, items)
		return out
	}
	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// SortItems orders items by name.
func SortItems(items []models.MenuItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

// SortCategories orders categories by display order, then name.
func SortCategories(categories []models.Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Order != categories[j].Order {
			return categories[i].Order < categories[j].Order
		}
		return categories[i].Name < categories[j].Name
	})
}

// View is the diner's menu screen state: the latest snapshot plus the
// selected category. Visible is recomputed whenever either changes.
type View struct {
	items    []models.MenuItem
	selected string
	visible  []models.MenuItem
}

func NewView() *View {
	return &View{selected: AllCategories, visible: []models.MenuItem{}}
}

func (v *View) SetItems(items []models.MenuItem) {
	v.items = items
	v.recompute()
}

func (v *View) Select(category string) {
	if category == "" {
		category = AllCategories
	}
	v.selected = category
	v.recompute()
}

func (v *View) Selected() string {
	return v.selected
}

func (v *View) Visible() []models.MenuItem {
	return v.visible
}

func (v *View) recompute() {
	v.visible = Filter(v.items, v.selected)
}
