package state

// Intent is a discrete request to change State. Timer ticks and the catalog
// load result travel as intents too, so one reducer sees every mutation.
type Intent interface {
	Kind() string
}

type (
	AddToCart         struct{ ProductID int64 }
	ToggleWishlist    struct{ ProductID int64 }
	SelectCategory    struct{ Category Category }
	NextSlide         struct{}
	PrevSlide         struct{}
	AutoAdvance       struct{}
	CatalogLoaded     struct{ Products []Product }
	CatalogFailed     struct{ Err error }
	ShowNewsletter    struct{}
	DismissNewsletter struct{ Email string }
	Search            struct{ Query string }
	Reset             struct{}
)

func (AddToCart) Kind() string         { return "cart" }
func (ToggleWishlist) Kind() string    { return "wishlist" }
func (SelectCategory) Kind() string    { return "category" }
func (NextSlide) Kind() string         { return "slide-next" }
func (PrevSlide) Kind() string         { return "slide-prev" }
func (AutoAdvance) Kind() string       { return "slide-auto" }
func (CatalogLoaded) Kind() string     { return "catalog-loaded" }
func (CatalogFailed) Kind() string     { return "catalog-failed" }
func (ShowNewsletter) Kind() string    { return "newsletter-show" }
func (DismissNewsletter) Kind() string { return "newsletter-dismiss" }
func (Search) Kind() string            { return "search" }
func (Reset) Kind() string             { return "reset" }

// IsNavigation reports whether in is a manual carousel move.
func IsNavigation(in Intent) bool {
	switch in.(type) {
	case NextSlide, PrevSlide:
		return true
	}
	return false
}
