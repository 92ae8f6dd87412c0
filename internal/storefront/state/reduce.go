package state

import "strings"

// Reduce applies in to s and returns the resulting state. It is total: unknown
// intents and intents that do not apply in the current state return s unchanged.
func Reduce(s State, in Intent) State {
	switch in := in.(type) {
	case AddToCart:
		s.Ledger, _ = s.Ledger.AddToCart(in.ProductID)
	case ToggleWishlist:
		s.Ledger, _ = s.Ledger.ToggleWishlist(in.ProductID)
	case SelectCategory:
		s.Category = in.Category
	case NextSlide, AutoAdvance:
		s.Carousel = s.Carousel.Next()
	case PrevSlide:
		s.Carousel = s.Carousel.Prev()
	case CatalogLoaded:
		s.Catalog = s.Catalog.loaded(in.Products)
	case CatalogFailed:
		s.Catalog = s.Catalog.failed()
	case ShowNewsletter:
		if !s.Newsletter.Dismissed {
			s.Newsletter.Visible = true
		}
	case DismissNewsletter:
		s.Newsletter = Newsletter{Visible: false, Dismissed: true}
	case Search:
		s.SearchQuery = strings.TrimSpace(in.Query)
	case Reset:
		s.Ledger = NewLedger()
		s.Category = All
		s.SearchQuery = ""
	}
	return s
}
