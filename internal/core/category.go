package core

// Category is one entry of the fixed category set records are filed under.
type Category struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

var categories = []Category{
	{Key: "purchases", Name: "Compras"},
	{Key: "food", Name: "Alimentação"},
	{Key: "salary", Name: "Salário"},
	{Key: "car", Name: "Carro"},
	{Key: "leisure", Name: "Lazer"},
	{Key: "studies", Name: "Estudos"},
}

// Categories returns the category set in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func LookupCategory(key string) (Category, bool) {
	for _, c := range categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}
