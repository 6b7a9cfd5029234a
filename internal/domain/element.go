// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the application; it depends on nothing.
package domain

// Element is one of the five phases (五行) used throughout the scoring rules.
type Element string

const (
	Wood  Element = "wood"
	Fire  Element = "fire"
	Earth Element = "earth"
	Metal Element = "metal"
	Water Element = "water"
)

// ElementOrder is the canonical iteration order. Strongest/weakest ties and
// the missing-element listing all resolve in this order.
var ElementOrder = []Element{Wood, Fire, Earth, Metal, Water}

var elementHan = map[Element]string{
	Wood:  "木",
	Fire:  "火",
	Earth: "土",
	Metal: "金",
	Water: "水",
}

var hanElement = map[string]Element{
	"木": Wood,
	"火": Fire,
	"土": Earth,
	"金": Metal,
	"水": Water,
}

// Han returns the Chinese character for the element, as used in prompts,
// stored catalog rows, and user-facing text.
func (e Element) Han() string { return elementHan[e] }

// ElementFromHan maps a Chinese element character back to its Element.
func ElementFromHan(s string) (Element, bool) {
	e, ok := hanElement[s]
	return e, ok
}

// Valid reports whether e is one of the five elements.
func (e Element) Valid() bool {
	_, ok := elementHan[e]
	return ok
}
