package fake

type state struct {
	code   string
	region string
	lat    float64
	lon    float64
	cities []string
}

var states = []state{
	{"CA", "west", 36.78, -119.42, []string{"Los Angeles", "San Francisco", "San Diego", "Sacramento", "Fresno"}},
	{"OR", "west", 43.80, -120.55, []string{"Portland", "Eugene", "Salem", "Bend"}},
	{"WA", "west", 47.75, -120.74, []string{"Seattle", "Spokane", "Tacoma", "Bellevue"}},
	{"NV", "west", 38.80, -116.42, []string{"Las Vegas", "Reno", "Henderson"}},
	{"AZ", "west", 34.05, -111.09, []string{"Phoenix", "Tucson", "Mesa", "Flagstaff"}},
	{"CO", "west", 39.55, -105.78, []string{"Denver", "Boulder", "Colorado Springs"}},
	{"UT", "west", 39.32, -111.09, []string{"Salt Lake City", "Provo", "Ogden"}},
	{"TX", "south", 31.97, -99.90, []string{"Houston", "Austin", "Dallas", "San Antonio", "El Paso"}},
	{"FL", "south", 27.66, -81.52, []string{"Miami", "Orlando", "Tampa", "Jacksonville"}},
	{"GA", "south", 32.16, -82.90, []string{"Atlanta", "Savannah", "Augusta"}},
	{"NC", "south", 35.76, -79.02, []string{"Charlotte", "Raleigh", "Durham", "Asheville"}},
	{"TN", "south", 35.52, -86.58, []string{"Nashville", "Memphis", "Knoxville"}},
	{"LA", "south", 30.98, -91.96, []string{"New Orleans", "Baton Rouge", "Shreveport"}},
	{"IL", "midwest", 40.63, -89.40, []string{"Chicago", "Springfield", "Peoria"}},
	{"OH", "midwest", 40.42, -82.91, []string{"Columbus", "Cleveland", "Cincinnati"}},
	{"MI", "midwest", 44.31, -85.60, []string{"Detroit", "Grand Rapids", "Ann Arbor"}},
	{"MN", "midwest", 46.73, -94.69, []string{"Minneapolis", "Saint Paul", "Duluth"}},
	{"MO", "midwest", 37.96, -91.83, []string{"Kansas City", "St. Louis", "Springfield"}},
	{"WI", "midwest", 43.78, -88.79, []string{"Milwaukee", "Madison", "Green Bay"}},
	{"NY", "northeast", 42.17, -74.95, []string{"New York", "Buffalo", "Rochester", "Albany"}},
	{"MA", "northeast", 42.41, -71.38, []string{"Boston", "Worcester", "Cambridge"}},
	{"PA", "northeast", 41.20, -77.19, []string{"Philadelphia", "Pittsburgh", "Harrisburg"}},
	{"NJ", "northeast", 40.06, -74.41, []string{"Newark", "Jersey City", "Princeton"}},
	{"ME", "northeast", 45.25, -69.45, []string{"Portland", "Bangor", "Augusta"}},
}

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda", "David", "Elizabeth",
	"William", "Barbara", "Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah", "Carlos", "Karen",
	"Daniel", "Lisa", "Matthew", "Nancy", "Anthony", "Betty", "Mark", "Sandra", "Wei", "Ashley",
	"Steven", "Kimberly", "Andrew", "Emily", "Kenji", "Donna", "Joshua", "Michelle", "Kevin", "Carol",
	"Priya", "Amanda", "Luis", "Melissa", "Omar", "Deborah", "Ivan", "Stephanie", "Aisha", "Rebecca",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
	"Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
	"Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson",
	"Walker", "Young", "Allen", "King", "Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores",
	"Green", "Adams", "Nelson", "Baker", "Hall", "Rivera", "Campbell", "Mitchell", "Carter", "Patel",
}

var categories = []string{
	"Electronics", "Computers", "Phones", "Audio", "Cameras",
	"Home", "Kitchen", "Furniture", "Garden", "Tools",
	"Clothing", "Shoes", "Jewelry", "Watches", "Bags",
	"Beauty", "Health", "Grocery", "Pet Supplies", "Baby",
	"Toys", "Games", "Books", "Sports", "Automotive",
}

var subcategories = []string{
	"Essentials", "Premium", "Accessories", "Outlet", "Refurbished", "Kids", "Professional", "Eco",
}

var adjectives = []string{
	"Ergonomic", "Sleek", "Rustic", "Intelligent", "Durable", "Compact", "Practical", "Handcrafted",
	"Lightweight", "Premium", "Refined", "Portable", "Classic", "Modern", "Heavy Duty", "Wireless",
}

var nouns = []string{
	"Lamp", "Chair", "Keyboard", "Speaker", "Backpack", "Jacket", "Blender", "Watch", "Headphones",
	"Bottle", "Notebook", "Drill", "Mat", "Kettle", "Camera", "Charger", "Sneakers", "Puzzle",
}

var paymentMethods = []string{"credit_card", "paypal", "apple_pay", "bank_transfer", "gift_card", "crypto"}

var discountRates = []float64{0.05, 0.10, 0.15, 0.20}
