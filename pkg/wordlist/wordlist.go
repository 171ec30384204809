package wordlist

import (
	_ "embed"
	"math/rand"
	"strings"
)

//go:embed words.txt
var rawWords string

// List is the embedded drawing word list.
type List struct {
	words []string
}

func Load() *List {
	lines := strings.Split(rawWords, "\n")
	words := make([]string, 0, len(lines))
	for _, line := range lines {
		word := strings.TrimSpace(line)
		if word != "" {
			words = append(words, word)
		}
	}

	return &List{words: words}
}

func (l *List) Words() []string {
	return l.words
}

// Random returns a pseudorandom word from the list.
func (l *List) Random() string {
	return l.words[rand.Intn(len(l.words))]
}
