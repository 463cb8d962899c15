package poi

import (
	"slices"
	"strings"
)

// Categories assigned by Categorize
const (
	CategoryRestaurant     = "restaurant"
	CategoryHotel          = "hotel"
	CategoryHospital       = "hospital"
	CategoryTransportation = "transportation"
	CategoryEducation      = "education"
	CategoryShopping       = "shopping"
	CategoryBank           = "bank"
	CategoryEmergency      = "emergency"
	CategoryTourism        = "tourism"
	CategoryEntertainment  = "entertainment"
	CategoryOther          = "other"
)

type categoryRule struct {
	category string
	amenity  []string
	tourism  []string
	match    func(tags map[string]string) bool
}

// rules are tried in order; the first match wins
var rules = []categoryRule{
	{category: CategoryRestaurant, amenity: []string{"restaurant", "cafe", "fast_food", "bar", "pub", "food_court"}},
	{category: CategoryHotel, amenity: []string{"hotel", "guest_house", "hostel", "motel"}, tourism: []string{"hotel", "hostel", "guest_house"}},
	{
		category: CategoryHospital,
		amenity:  []string{"hospital", "clinic", "pharmacy", "dentist", "doctors"},
		match:    func(tags map[string]string) bool { return tags["healthcare"] != "" },
	},
	{category: CategoryTransportation, amenity: []string{"bus_station", "taxi", "fuel", "parking", "ferry_terminal"}},
	{category: CategoryEducation, amenity: []string{"school", "university", "college", "library"}},
	{
		category: CategoryShopping,
		amenity:  []string{"marketplace", "mall"},
		match:    func(tags map[string]string) bool { return tags["shop"] != "" },
	},
	{category: CategoryBank, amenity: []string{"bank", "atm"}},
	{category: CategoryEmergency, amenity: []string{"police", "fire_station"}},
	{category: CategoryTourism, tourism: []string{"attraction", "museum", "gallery", "zoo", "theme_park"}},
	{category: CategoryEntertainment, amenity: []string{"cinema", "theatre", "casino", "nightclub"}},
}

// Categorize maps OpenStreetMap tags to a category
func Categorize(tags map[string]string) string {
	amenity, tourism := tags["amenity"], tags["tourism"]
	for _, r := range rules {
		if (amenity != "" && slices.Contains(r.amenity, amenity)) ||
			(tourism != "" && slices.Contains(r.tourism, tourism)) ||
			(r.match != nil && r.match(tags)) {
			return r.category
		}
	}
	return CategoryOther
}

// Describe builds a short description from the amenity, shop or tourism
// tag, with the cuisine in parentheses when present.
func Describe(tags map[string]string) string {
	desc := tags["amenity"]
	if desc == "" {
		desc = tags["shop"]
	}
	if desc == "" {
		desc = tags["tourism"]
	}
	if cuisine := tags["cuisine"]; cuisine != "" {
		desc += " (" + cuisine + ")"
	}
	return strings.TrimSpace(desc)
}

// IsPOI reports whether tags describe a named point of interest
func IsPOI(tags map[string]string) bool {
	if tags["name"] == "" {
		return false
	}
	return tags["amenity"] != "" || tags["shop"] != "" || tags["tourism"] != "" || tags["healthcare"] != ""
}
