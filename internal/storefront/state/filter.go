package state

// Filter projects products onto the selected category. All returns products as is;
// any other value returns the order preserving subsequence with that category,
// which may be empty.
func Filter(products []Product, selected Category) []Product {
	if selected == All {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == selected {
			out = append(out, p)
		}
	}
	return out
}
