package topics

// Builtin is served when no topic source is configured or every source fails.
var Builtin = []string{
	"Pineapple belongs on pizza",
	"Remote work is better than office work",
	"Cats make better pets than dogs",
	"Homework should be abolished",
	"Social media does more harm than good",
	"Space exploration is worth the cost",
	"Breakfast is the most important meal of the day",
	"Video games are a form of art",
	"Cities should ban private cars from their centers",
	"A four-day work week should be standard",
	"Books are always better than their movie adaptations",
	"Artificial intelligence will create more jobs than it destroys",
	"Tipping culture should be abolished",
	"Zoos should not exist",
}
