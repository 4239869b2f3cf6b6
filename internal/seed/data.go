package seed

var (
	nameAdjectives = []string{
		"Savory", "Golden", "Rustic", "Hungry", "Little", "Crimson", "Smoky",
		"Lucky", "Velvet", "Humble", "Copper", "Midnight", "Happy", "Wild",
	}
	nameNouns = []string{
		"Spoon", "Lantern", "Table", "Kettle", "Garden", "Fork", "Oven",
		"Harbor", "Pantry", "Skillet", "Orchard", "Bistro", "Grill", "Noodle",
	}
	categories = []string{
		"Brunch", "Burgers", "Coffee", "Deli", "Dim Sum", "Indian", "Italian",
		"Mediterranean", "Mexican", "Pizza", "Ramen", "Sushi",
	}
	cities = []string{
		"Albuquerque", "Arlington", "Atlanta", "Austin", "Baltimore", "Boston",
		"Charlotte", "Chicago", "Cleveland", "Colorado Springs", "Columbus",
		"Dallas", "Denver", "Detroit", "El Paso", "Fort Worth", "Fresno",
		"Houston", "Indianapolis", "Jacksonville", "Kansas City", "Las Vegas",
		"Long Beach", "Los Angeles", "Louisville", "Memphis", "Mesa", "Miami",
		"Milwaukee", "Nashville", "New York", "Oakland", "Oklahoma", "Omaha",
		"Philadelphia", "Phoenix", "Portland", "Raleigh", "Sacramento",
		"San Antonio", "San Diego", "San Francisco", "San Jose", "Tucson",
		"Tulsa", "Virginia Beach", "Washington",
	}
	reviewTexts = map[int][]string{
		1: {"Would never eat here again!", "Cold food and a long wait.", "Not worth the trip."},
		2: {"Not my cup of tea.", "Portions were tiny for the price.", "Service was slow."},
		3: {"Exactly okay :/", "Decent, nothing special.", "Fine for a quick bite."},
		4: {"Actually pretty good, would recommend!", "Friendly staff and solid food.", "Will come back for dessert."},
		5: {"This is my favorite place. Literally.", "Best meal I've had this year!", "Absolutely perfect."},
	}
	reviewerNames = []string{
		"Alex", "Blair", "Casey", "Devon", "Emery", "Finley", "Harper",
		"Jordan", "Kai", "Logan", "Morgan", "Quinn", "Riley", "Sage",
	}
)

const (
	photoURLFormat = "https://storage.googleapis.com/firestorequickstarts.appspot.com/food_%d.png"
	photoCount     = 22
)
