package state

// State is everything one visitor sees. It is a value: reducers return a new State
// and never modify the one passed in.
type State struct {
	Catalog     Catalog    `json:"catalog"`
	Ledger      Ledger     `json:"ledger"`
	Category    Category   `json:"category"`
	Carousel    Carousel   `json:"carousel"`
	Newsletter  Newsletter `json:"newsletter"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// Newsletter tracks the one-shot signup popup.
type Newsletter struct {
	Visible   bool `json:"visible"`
	Dismissed bool `json:"dismissed"`
}

// New returns the state of a fresh session with a loading catalog.
func New(slides int) (State, error) {
	c, err := NewCarousel(slides)
	if err != nil {
		return State{}, err
	}
	return State{
		Catalog:  Catalog{status: CatalogLoading},
		Ledger:   NewLedger(),
		Category: All,
		Carousel: c,
	}, nil
}

// VisibleProducts is the product grid: the ready catalog filtered by the selected category.
// It is empty while the catalog is loading or failed.
func (s State) VisibleProducts() []Product {
	return Filter(s.Catalog.Products(), s.Category)
}
