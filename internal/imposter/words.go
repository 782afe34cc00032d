package imposter

type category struct {
	name  string
	label string
	emoji string
	pairs [][2]string
}

var catalog = []category{
	{"animals", "Animals", "🐾", [][2]string{
		{"Dog", "Wolf"}, {"Cat", "Tiger"}, {"Rabbit", "Hare"}, {"Dolphin", "Shark"},
		{"Bee", "Wasp"}, {"Butterfly", "Moth"}, {"Crow", "Raven"}, {"Turtle", "Tortoise"},
		{"Seal", "Sea Lion"}, {"Alligator", "Crocodile"}, {"Monkey", "Ape"}, {"Frog", "Toad"},
		{"Mouse", "Rat"}, {"Donkey", "Mule"}, {"Goose", "Duck"}, {"Leopard", "Cheetah"},
		{"Buffalo", "Bison"}, {"Llama", "Alpaca"}, {"Hawk", "Eagle"}, {"Pigeon", "Dove"},
		{"Panther", "Jaguar"}, {"Salmon", "Trout"}, {"Crab", "Lobster"}, {"Octopus", "Squid"},
		{"Hamster", "Gerbil"}, {"Penguin", "Puffin"}, {"Parrot", "Macaw"}, {"Owl", "Eagle"},
		{"Elephant", "Mammoth"}, {"Horse", "Zebra"},
	}},
	{"food", "Food & Drinks", "🍕", [][2]string{
		{"Pizza", "Flatbread"}, {"Burger", "Sandwich"}, {"Sushi", "Sashimi"}, {"Coffee", "Espresso"},
		{"Cake", "Pie"}, {"Ice Cream", "Gelato"}, {"Pasta", "Noodles"}, {"Butter", "Margarine"},
		{"Jam", "Jelly"}, {"Ketchup", "Tomato Sauce"}, {"Chips", "Crisps"}, {"Soup", "Stew"},
		{"Pancake", "Waffle"}, {"Muffin", "Cupcake"}, {"Lemonade", "Limeade"}, {"Hot Dog", "Sausage"},
		{"Taco", "Burrito"}, {"Croissant", "Danish"}, {"Yogurt", "Pudding"}, {"Bread", "Toast"},
		{"Bacon", "Ham"}, {"Shrimp", "Prawn"}, {"Biscuit", "Cookie"}, {"Smoothie", "Milkshake"},
		{"Salad", "Coleslaw"}, {"Chocolate", "Cocoa"}, {"Honey", "Syrup"}, {"Mustard", "Mayo"},
		{"Popcorn", "Corn"}, {"Donut", "Bagel"},
	}},
	{"objects", "Everyday Objects", "📱", [][2]string{
		{"Phone", "Tablet"}, {"Pen", "Pencil"}, {"Chair", "Stool"}, {"Couch", "Sofa"},
		{"Watch", "Clock"}, {"Mirror", "Glass"}, {"Pillow", "Cushion"}, {"Bag", "Purse"},
		{"Lamp", "Light"}, {"Cup", "Mug"}, {"Plate", "Bowl"}, {"Fork", "Spoon"},
		{"Scissors", "Knife"}, {"Brush", "Comb"}, {"Soap", "Shampoo"}, {"Towel", "Napkin"},
		{"Book", "Magazine"}, {"Newspaper", "Newsletter"}, {"Box", "Crate"}, {"Rope", "String"},
		{"Key", "Lock"}, {"Bell", "Alarm"}, {"Candle", "Torch"}, {"Blanket", "Sheet"},
		{"Curtain", "Blind"}, {"Carpet", "Rug"}, {"Wallet", "Purse"}, {"Umbrella", "Parasol"},
		{"Glasses", "Sunglasses"}, {"Hat", "Cap"},
	}},
	{"places", "Places", "🏝️", [][2]string{
		{"Beach", "Shore"}, {"Mountain", "Hill"}, {"Lake", "Pond"}, {"Ocean", "Sea"},
		{"Forest", "Jungle"}, {"Desert", "Sahara"}, {"City", "Town"}, {"Village", "Hamlet"},
		{"Park", "Garden"}, {"Museum", "Gallery"}, {"Library", "Bookstore"}, {"Hospital", "Clinic"},
		{"Restaurant", "Cafe"}, {"Hotel", "Motel"}, {"Airport", "Station"}, {"School", "University"},
		{"Church", "Temple"}, {"Stadium", "Arena"}, {"Theater", "Cinema"}, {"Mall", "Market"},
		{"Bridge", "Tunnel"}, {"Island", "Peninsula"}, {"Cave", "Cavern"}, {"Valley", "Canyon"},
		{"River", "Stream"}, {"Waterfall", "Fountain"}, {"Castle", "Palace"}, {"Farm", "Ranch"},
		{"Zoo", "Aquarium"}, {"Gym", "Spa"},
	}},
	{"actions", "Actions & Verbs", "🏃", [][2]string{
		{"Walk", "Run"}, {"Jump", "Hop"}, {"Swim", "Dive"}, {"Sing", "Hum"},
		{"Dance", "Sway"}, {"Write", "Draw"}, {"Read", "Scan"}, {"Cook", "Bake"},
		{"Cut", "Slice"}, {"Push", "Pull"}, {"Throw", "Toss"}, {"Catch", "Grab"},
		{"Kick", "Punch"}, {"Whisper", "Murmur"}, {"Shout", "Scream"}, {"Laugh", "Giggle"},
		{"Cry", "Sob"}, {"Sleep", "Nap"}, {"Eat", "Chew"}, {"Drink", "Sip"},
		{"Talk", "Chat"}, {"Listen", "Hear"}, {"Watch", "Observe"}, {"Touch", "Feel"},
		{"Smell", "Sniff"}, {"Think", "Ponder"}, {"Dream", "Imagine"}, {"Work", "Labor"},
		{"Play", "Game"}, {"Rest", "Relax"},
	}},
}

// CategoryInfo describes a word category for display.
type CategoryInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Pairs int    `json:"pairs"`
}

func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(catalog))
	for i, c := range catalog {
		out[i] = CategoryInfo{Name: c.name, Label: c.label, Emoji: c.emoji, Pairs: len(c.pairs)}
	}
	return out
}

func IsCategory(name string) bool {
	return lookup(name) != nil
}

func lookup(name string) *category {
	for i := range catalog {
		if catalog[i].name == name {
			return &catalog[i]
		}
	}
	return nil
}

// RandomPair draws a word pair from the named category. Unknown categories
// fall back to a random valid one; the category actually used is returned.
func RandomPair(rng Rand, name string) (WordPair, string) {
	c := lookup(name)
	if c == nil {
		c = &catalog[rng.IntN(len(catalog))]
	}
	p := c.pairs[rng.IntN(len(c.pairs))]
	return WordPair{Civilian: p[0], Imposter: p[1]}, c.name
}
