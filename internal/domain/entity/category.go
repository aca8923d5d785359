package entity

// Category is the closed set of place categories. Values travel over the
// wire verbatim, so they use the client-facing camelCase spelling.
type Category string

const (
	CategoryBarsAndPubs            Category = "barsAndPubs"
	CategoryHookahBars             Category = "hookahBars"
	CategoryCafesAndRestaurants    Category = "cafesAndRestaurants"
	CategoryCoffeeHouses           Category = "coffeeHouses"
	CategoryPastryShopsAndBakeries Category = "pastryShopsAndBakeries"
	CategoryAttractions            Category = "attractions"
	CategoryArt                    Category = "art"
	CategoryCity                   Category = "city"
	CategorySport                  Category = "sport"
	CategoryOther                  Category = "other"
)

// Categories lists every allowed category, in presentation order.
func Categories() []Category {
	return []Category{
		CategoryBarsAndPubs,
		CategoryHookahBars,
		CategoryCafesAndRestaurants,
		CategoryCoffeeHouses,
		CategoryPastryShopsAndBakeries,
		CategoryAttractions,
		CategoryArt,
		CategoryCity,
		CategorySport,
		CategoryOther,
	}
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}

	return false
}

func (c Category) String() string {
	return string(c)
}
