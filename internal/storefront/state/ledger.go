package state

import "slices"

// Ledger records cart and wishlist membership by product id.
// Cart is a sequence that grows by one on every add. Wishlist is an insertion ordered set.
// Values are copied on write, so a Ledger held by an older State never changes.
type Ledger struct {
	Cart     []int64 `json:"cart"`
	Wishlist []int64 `json:"wishlist"`
}

// NewLedger returns an empty ledger whose cart and wishlist encode as [] rather than null.
func NewLedger() Ledger {
	return Ledger{Cart: []int64{}, Wishlist: []int64{}}
}

// AddToCart appends id unconditionally and returns the new cart size.
func (l Ledger) AddToCart(id int64) (Ledger, int) {
	cart := make([]int64, len(l.Cart), len(l.Cart)+1)
	copy(cart, l.Cart)
	cart = append(cart, id)
	return Ledger{Cart: cart, Wishlist: l.Wishlist}, len(cart)
}

// ToggleWishlist removes id when present and inserts it otherwise.
// It returns whether id is in the wishlist afterwards.
func (l Ledger) ToggleWishlist(id int64) (Ledger, bool) {
	if i := slices.Index(l.Wishlist, id); i >= 0 {
		wl := make([]int64, 0, len(l.Wishlist)-1)
		wl = append(wl, l.Wishlist[:i]...)
		wl = append(wl, l.Wishlist[i+1:]...)
		return Ledger{Cart: l.Cart, Wishlist: wl}, false
	}
	wl := make([]int64, len(l.Wishlist), len(l.Wishlist)+1)
	copy(wl, l.Wishlist)
	wl = append(wl, id)
	return Ledger{Cart: l.Cart, Wishlist: wl}, true
}

// InWishlist drives the heart state of a product card.
func (l Ledger) InWishlist(id int64) bool {
	return slices.Contains(l.Wishlist, id)
}

// CartCount and WishlistCount back the header badges.
func (l Ledger) CartCount() int     { return len(l.Cart) }
func (l Ledger) WishlistCount() int { return len(l.Wishlist) }
