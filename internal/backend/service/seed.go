package service

import "github.com/shopspring/decimal"

const sampleImage = "https://www.westside.com/cdn/shop/files/300989852BROWN_1.jpg?v=1733990524&width=1946"

// SampleProducts is the catalog inserted into an empty store when seeding is enabled.
func SampleProducts() []ProductCreateDto {
	return []ProductCreateDto{
		{Name: "Classic White Shirt", Price: decimal.RequireFromString("49.99"), Discount: 20, Category: "Men", Image: sampleImage},
		{Name: "Denim Jeans", Price: decimal.RequireFromString("79.99"), Discount: 15, Category: "Women", Image: sampleImage},
		{Name: "Leather Jacket", Price: decimal.RequireFromString("199.99"), Discount: 30, Category: "Men", Image: sampleImage},
		{Name: "Summer Dress", Price: decimal.RequireFromString("59.99"), Discount: 25, Category: "Women", Image: sampleImage},
		{Name: "Casual Sneakers", Price: decimal.RequireFromString("89.99"), Discount: 10, Category: "Kids", Image: sampleImage},
		{Name: "Designer Watch", Price: decimal.RequireFromString("299.99"), Discount: 40, Category: "Accessories", Image: sampleImage},
	}
}
