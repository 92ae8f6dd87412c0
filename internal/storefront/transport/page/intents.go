package page

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abgdnv/storefront/internal/storefront/state"
)

// Intent kinds accepted on the wire.
const (
	KindCart              = "cart"
	KindWishlist          = "wishlist"
	KindCategory          = "category"
	KindSlideNext         = "slide-next"
	KindSlidePrev         = "slide-prev"
	KindNewsletterDismiss = "newsletter-dismiss"
	KindSearch            = "search"
	KindPhotoSearch       = "photo-search"
	KindReset             = "reset"
)

// IntentRequest is the JSON body of POST /api/v1/session/intents. Form posts
// are mapped onto the same shape.
type IntentRequest struct {
	Type      string `json:"type"       validate:"required,oneof=cart wishlist category slide-next slide-prev newsletter-dismiss search photo-search reset"`
	ProductID int64  `json:"product_id" validate:"omitempty,gt=0"`
	Category  string `json:"category"   validate:"omitempty,oneof=All Men Women Kids Accessories Sale"`
	Query     string `json:"query"      validate:"max=200"`
	Email     string `json:"email"      validate:"omitempty,email"`
}

// errLogOnly marks a request that is logged but changes no state.
var errLogOnly = errors.New("log only intent")

// toIntent maps a validated request onto a state intent.
func (r IntentRequest) toIntent() (state.Intent, error) {
	switch r.Type {
	case KindCart:
		if r.ProductID == 0 {
			return nil, fmt.Errorf("product_id is required for %s", r.Type)
		}
		return state.AddToCart{ProductID: r.ProductID}, nil
	case KindWishlist:
		if r.ProductID == 0 {
			return nil, fmt.Errorf("product_id is required for %s", r.Type)
		}
		return state.ToggleWishlist{ProductID: r.ProductID}, nil
	case KindCategory:
		if r.Category == "" {
			return nil, fmt.Errorf("category is required for %s", r.Type)
		}
		return state.SelectCategory{Category: state.Category(r.Category)}, nil
	case KindSlideNext:
		return state.NextSlide{}, nil
	case KindSlidePrev:
		return state.PrevSlide{}, nil
	case KindNewsletterDismiss:
		return state.DismissNewsletter{Email: r.Email}, nil
	case KindSearch:
		return state.Search{Query: r.Query}, nil
	case KindPhotoSearch:
		return nil, errLogOnly
	case KindReset:
		return state.Reset{}, nil
	default:
		return nil, fmt.Errorf("unknown intent type %q", r.Type)
	}
}

// fromForm builds an IntentRequest from a form post to /intents/{kind}.
func fromForm(kind string, get func(string) string) (IntentRequest, error) {
	req := IntentRequest{
		Type:     kind,
		Category: strings.TrimSpace(get("category")),
		Query:    get("query"),
		Email:    strings.TrimSpace(get("email")),
	}
	if raw := strings.TrimSpace(get("product_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid product_id %q", raw)
		}
		req.ProductID = id
	}
	return req, nil
}
