package listings

import "meramarket/models"

var categories = []models.Category{
	{
		ID:   "electronics",
		Name: "Electronics",
		Subcategories: []models.Subcategory{
			{ID: "mobile-phones", Name: "Mobile Phones"},
			{ID: "laptops", Name: "Laptops"},
			{ID: "tablets", Name: "Tablets"},
			{ID: "cameras", Name: "Cameras"},
			{ID: "accessories", Name: "Accessories"},
		},
	},
	{
		ID:   "vehicles",
		Name: "Vehicles",
		Subcategories: []models.Subcategory{
			{ID: "cars", Name: "Cars"},
			{ID: "motorcycles", Name: "Motorcycles"},
			{ID: "bicycles", Name: "Bicycles"},
			{ID: "auto-parts", Name: "Auto Parts"},
		},
	},
	{
		ID:   "real-estate",
		Name: "Real Estate",
		Subcategories: []models.Subcategory{
			{ID: "apartments", Name: "Apartments"},
			{ID: "houses", Name: "Houses"},
			{ID: "commercial", Name: "Commercial"},
			{ID: "land", Name: "Land"},
		},
	},
	{
		ID:   "fashion",
		Name: "Fashion",
		Subcategories: []models.Subcategory{
			{ID: "mens-clothing", Name: "Men's Clothing"},
			{ID: "womens-clothing", Name: "Women's Clothing"},
			{ID: "shoes", Name: "Shoes"},
			{ID: "accessories", Name: "Accessories"},
		},
	},
	{
		ID:   "home-garden",
		Name: "Home & Garden",
		Subcategories: []models.Subcategory{
			{ID: "furniture", Name: "Furniture"},
			{ID: "appliances", Name: "Appliances"},
			{ID: "decor", Name: "Home Decor"},
			{ID: "garden", Name: "Garden"},
		},
	},
}

// Categories returns the listing taxonomy.
func Categories() []models.Category {
	out := make([]models.Category, len(categories))
	for i, c := range categories {
		out[i] = c
		out[i].Subcategories = append([]models.Subcategory(nil), c.Subcategories...)
	}
	return out
}

// validCategory reports whether category (and subcategory, when given)
// exist in the taxonomy.
func validCategory(category, subcategory string) bool {
	for _, c := range categories {
		if c.ID != category {
			continue
		}
		if subcategory == "" {
			return true
		}
		for _, s := range c.Subcategories {
			if s.ID == subcategory {
				return true
			}
		}
	}
	return false
}
