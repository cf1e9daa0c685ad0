package core

// OtherExpenses is the catch-all primary category.
const OtherExpenses = "OtherExpenses"

type category struct {
	name  string
	emoji string
	subs  []string
}

// taxonomy is ordered as it is presented to users.
var taxonomy = []category{
	{"Housing", "\U0001F3E0", []string{"Rent", "SpeseCondo", "Internet", "Furniture", "Insurances", "Cleaning", "TV", "Electricity", "Phone"}},
	{"Health", "\U0001F48A", []string{"Dottori", "Medicine", "Sport", "Palestra"}},
	{"Groceries", "\U0001F6D2", []string{"Migros", "Coop", "OtherGrocerie"}},
	{"Transport", "\U0001F697", []string{"Treno", "Benzina", "AltroMacchina"}},
	{"Out", "\U0001F355", []string{"Restaurants", "Bar", "Asporto&Domicilio", "Cinema", "AltreEsperienze"}},
	{"Travel", "✈️", []string{"Travel", "Concerts"}},
	{"Clothing", "\U0001F457", []string{"Robe", "Accessori", "Scarpe", "Makeup", "Skincare", "Hair"}},
	{"Leisure", "\U0001F3AE", []string{"Tech", "Books", "Leisure", "Learning", "Games", "OtherLeisure"}},
	{"Gifts", "\U0001F381", []string{"Gifts"}},
	{"Fees", "\U0001F4B3", []string{"Brokers", "Banks", "Consulting", "OtherFees"}},
	{OtherExpenses, "\U0001F4E6", []string{"Pepe", "OtherExpenses"}},
}

func lookupCategory(primary string) (category, bool) {
	for _, c := range taxonomy {
		if c.name == primary {
			return c, true
		}
	}
	return category{}, false
}

// Categories returns the primary category names in display order.
func Categories() []string {
	out := make([]string, len(taxonomy))
	for i, c := range taxonomy {
		out[i] = c.name
	}
	return out
}

// Subcategories returns the secondary categories allowed under primary,
// or nil when primary is unknown.
func Subcategories(primary string) []string {
	c, ok := lookupCategory(primary)
	if !ok {
		return nil
	}
	return append([]string(nil), c.subs...)
}

func CategoryEmoji(primary string) string {
	c, _ := lookupCategory(primary)
	return c.emoji
}

func IsCategory(primary string) bool {
	_, ok := lookupCategory(primary)
	return ok
}

// IsSubcategory reports whether secondary is listed under primary.
func IsSubcategory(primary, secondary string) bool {
	c, ok := lookupCategory(primary)
	if !ok {
		return false
	}
	for _, s := range c.subs {
		if s == secondary {
			return true
		}
	}
	return false
}
