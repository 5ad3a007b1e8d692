// Package typewriter reveals a line of dialogue one visible character at a
// time. Markup spans such as <b> or <color=red> are never split: a whole span
// is consumed in a single step without counting as a visible character.
package typewriter

import "strings"

const (
	markupOpen  = '<'
	markupClose = '>'
)

// Reveal walks a line's runes and tracks how many visible characters have
// been shown so far.
type Reveal struct {
	text     []rune
	pos      int
	visible  int
	total    int
	inMarkup bool
}

// NewReveal prepares a reveal for text with nothing visible.
func NewReveal(text string) *Reveal {
	runes := []rune(text)
	return &Reveal{
		text:  runes,
		total: CountVisible(text),
	}
}

// Step consumes runes up to and including the next visible character.
// Markup spans encountered on the way are consumed atomically. It returns
// false once the line has no visible characters left to reveal.
func (r *Reveal) Step() bool {
	for r.pos < len(r.text) {
		c := r.text[r.pos]
		r.pos++

		if c == markupOpen || r.inMarkup {
			r.inMarkup = c != markupClose
			continue
		}

		r.visible++
		return true
	}
	return false
}

// Finish reveals the remainder of the line at once.
func (r *Reveal) Finish() {
	r.pos = len(r.text)
	r.inMarkup = false
	r.visible = r.total
}

// Done reports whether every visible character has been revealed.
func (r *Reveal) Done() bool {
	return r.visible >= r.total
}

// Visible returns the number of characters revealed so far.
func (r *Reveal) Visible() int { return r.visible }

// Total returns the number of revealable characters in the line.
func (r *Reveal) Total() int { return r.total }

// Text returns the full line including markup.
func (r *Reveal) Text() string { return string(r.text) }

// CountVisible returns the number of characters in text that are not part of
// a markup span.
func CountVisible(text string) int {
	n := 0
	inMarkup := false
	for _, c := range text {
		if c == markupOpen || inMarkup {
			inMarkup = c != markupClose
			continue
		}
		n++
	}
	return n
}

// Plain returns the first n visible characters of text with all markup
// stripped. A negative n returns the whole line.
func Plain(text string, n int) string {
	var b strings.Builder
	shown := 0
	inMarkup := false
	for _, c := range text {
		if c == markupOpen || inMarkup {
			inMarkup = c != markupClose
			continue
		}
		if n >= 0 && shown >= n {
			break
		}
		b.WriteRune(c)
		shown++
	}
	return b.String()
}
