package config

import "github.com/abgdnv/storefront/internal/storefront/transport/page"

func DefaultSlides() []page.Slide {
	return []page.Slide{
		{
			Title:    "SUMMER SALE",
			Subtitle: "UP TO 50% OFF",
			Image:    "https://images.unsplash.com/photo-1540221652346-e5dd6b50f3e7?ixlib=rb-4.0.3&auto=format&fit=crop&w=1920&q=80",
		},
		{
			Title:    "NEW ARRIVALS",
			Subtitle: "SHOP THE LATEST TRENDS",
			Image:    "https://images.unsplash.com/photo-1490481651871-ab68de25d43d?ixlib=rb-4.0.3&auto=format&fit=crop&w=1920&q=80",
		},
		{
			Title:    "FREE SHIPPING",
			Subtitle: "ON ORDERS OVER $100",
			Image:    "https://images.unsplash.com/photo-1607082349566-187342175e2f?ixlib=rb-4.0.3&auto=format&fit=crop&w=1920&q=80",
		},
	}
}

func DefaultBrands() []string {
	return []string{"Nike", "Adidas", "Puma", "Reebok", "Under Armour", "New Balance", "Asics", "Fila", "Converse", "Vans"}
}
