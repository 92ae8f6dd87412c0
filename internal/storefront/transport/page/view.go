package page

import (
	"github.com/abgdnv/storefront/internal/storefront/state"
)

// Slide is one hero carousel entry.
type Slide struct {
	Title    string `koanf:"title"    json:"title"`
	Subtitle string `koanf:"subtitle" json:"subtitle"`
	Image    string `koanf:"image"    json:"image"`
}

// Content is the static page copy shared by every visitor.
type Content struct {
	Slides []Slide
	Brands []string
}

type slideView struct {
	Slide
	Active bool
}

type categoryView struct {
	Name     string
	Selected bool
}

type productView struct {
	ID            int64
	Name          string
	Category      string
	Image         string
	Price         string
	OriginalPrice string
	HasDiscount   bool
	Discount      int
	InWishlist    bool
}

type pageView struct {
	Slides        []slideView
	SlideIndex    int
	Categories    []categoryView
	Brands        []string
	Loading       bool
	Error         string
	Products      []productView
	CartCount     int
	WishlistCount int
	Newsletter    bool
	Search        string
}

// sessionView is the JSON answer of the session API: the raw state plus the derived figures.
type sessionView struct {
	ID            string          `json:"id"`
	State         state.State     `json:"state"`
	CartCount     int             `json:"cart_count"`
	WishlistCount int             `json:"wishlist_count"`
	Visible       []state.Product `json:"visible_products"`
	Slide         Slide           `json:"slide"`
}

func newPageView(st state.State, content Content) pageView {
	v := pageView{
		SlideIndex:    st.Carousel.Index,
		Brands:        content.Brands,
		Loading:       st.Catalog.Status() == state.CatalogLoading,
		Error:         st.Catalog.Error(),
		CartCount:     st.Ledger.CartCount(),
		WishlistCount: st.Ledger.WishlistCount(),
		Newsletter:    st.Newsletter.Visible,
		Search:        st.SearchQuery,
	}
	for i, s := range content.Slides {
		v.Slides = append(v.Slides, slideView{Slide: s, Active: i == st.Carousel.Index})
	}
	for _, c := range state.Categories {
		v.Categories = append(v.Categories, categoryView{Name: string(c), Selected: c == st.Category})
	}
	for _, p := range st.VisibleProducts() {
		v.Products = append(v.Products, productView{
			ID:            p.ID,
			Name:          p.Name,
			Category:      string(p.Category),
			Image:         p.ImageURL(),
			Price:         p.Price.StringFixed(2),
			OriginalPrice: p.OriginalPrice().StringFixed(2),
			HasDiscount:   p.HasDiscount(),
			Discount:      p.Discount,
			InWishlist:    st.Ledger.InWishlist(p.ID),
		})
	}
	return v
}

func newSessionView(id string, st state.State, content Content) sessionView {
	v := sessionView{
		ID:            id,
		State:         st,
		CartCount:     st.Ledger.CartCount(),
		WishlistCount: st.Ledger.WishlistCount(),
		Visible:       st.VisibleProducts(),
	}
	if st.Carousel.Index < len(content.Slides) {
		v.Slide = content.Slides[st.Carousel.Index]
	}
	if v.Visible == nil {
		v.Visible = []state.Product{}
	}
	return v
}
