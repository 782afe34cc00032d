// Package imagegen illustrates secret words for player cards. Images come
// from a generative model when one is configured and fall back to a
// deterministic DiceBear avatar otherwise, so a card always has a picture.
package imagegen

import (
	"fmt"
	"net/url"
	"strings"
)

// Style is the look requested at one quirkiness level.
type Style struct {
	Name     string
	Label    string
	Modifier string
	Fallback string // DiceBear collection
}

var styles = [...]Style{
	{"realistic", "Realistic", "clean lines, professional, minimalist, clear illustration", "bottts"},
	{"artistic", "Cute", "kawaii style, cute cartoon, soft colors, friendly character", "fun-emoji"},
	{"vibrant", "Quirky", "playful, quirky, vibrant colors, fun cartoonish style", "thumbs"},
	{"dramatic", "Funny", "exaggerated features, bold colors, comedic, humorous caricature", "shapes"},
	{"artistic", "Absurd", "surrealist, dreamlike, psychedelic colors, bizarre abstract", "icons"},
}

const defaultQuirkiness = 3

// StyleFor maps quirkiness 1-5 to a style. Out-of-range values get the
// default level.
func StyleFor(quirkiness int) Style {
	if quirkiness < 1 || quirkiness > len(styles) {
		quirkiness = defaultQuirkiness
	}
	return styles[quirkiness-1]
}

// Prompt is the instruction sent to the model for word.
func Prompt(word string, quirkiness int) string {
	return fmt.Sprintf(`Generate a fun, quirky illustration of %q for a party game.
Style: %s.
The image should be a single centered illustration with NO text, NO words, NO letters in the image.
Square format (1:1 aspect ratio).
Make it visually interesting and slightly humorous while still being recognizable as %q.
The style should be suitable for a social deduction game card.`, word, StyleFor(quirkiness).Modifier, word)
}

// FallbackURL is the placeholder avatar for word. The same input always
// yields the same URL.
func FallbackURL(word string, quirkiness int) string {
	i := min(max(quirkiness, 1), len(styles)) - 1
	seed := strings.ReplaceAll(url.QueryEscape(strings.ToLower(word)), "+", "%20")
	return fmt.Sprintf("https://api.dicebear.com/7.x/%s/svg?seed=%s&backgroundColor=transparent", styles[i].Fallback, seed)
}

func cacheKey(word string, quirkiness int) string {
	return fmt.Sprintf("img_%s_q%d", word, quirkiness)
}
