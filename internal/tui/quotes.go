package tui

import "math/rand"

var quotes = []string{
	"The successful warrior is the average man, with laser-like focus.",
	"Concentrate all your thoughts upon the work at hand.",
	"Starve your distractions, feed your focus.",
	"Where focus goes, energy flows.",
	"Do one thing at a time, and do it well.",
	"It's not that I'm so smart, it's just that I stay with problems longer.",
	"The shorter way to do many things is to do only one thing at a time.",
	"Lack of direction, not lack of time, is the problem.",
}

// randomQuote picks the header quote for a session
func randomQuote() string {
	return quotes[rand.Intn(len(quotes))]
}
