// Package generator builds practice text from phrase lists.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Generator produces randomized practice text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Options shape a generated text.
type Options struct {
	Count int
	// CapsPct capitalises the first letter of a phrase with this probability.
	CapsPct float64
	// Weak biases selection toward phrases containing these runes.
	Weak   map[rune]struct{}
	Factor float64
}

// Generate picks opts.Count phrases. With a weak set and a positive factor,
// each phrase is weighted 1 + factor * (weak runes it contains).
func (g *Generator) Generate(phrases []string, opts Options) []string {
	if len(phrases) == 0 || opts.Count <= 0 {
		return nil
	}
	pick := g.uniform(phrases)
	if len(opts.Weak) > 0 && opts.Factor > 0 {
		pick = g.weighted(phrases, opts.Weak, opts.Factor)
	}
	result := make([]string, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		result = append(result, applyCaps(g.rnd, pick(), opts.CapsPct))
	}
	return result
}

// Text joins generated phrases with single spaces.
func (g *Generator) Text(phrases []string, opts Options) string {
	return strings.Join(g.Generate(phrases, opts), " ")
}

func (g *Generator) uniform(phrases []string) func() string {
	return func() string {
		return phrases[g.rnd.Intn(len(phrases))]
	}
}

func (g *Generator) weighted(phrases []string, weak map[rune]struct{}, factor float64) func() string {
	weights := make([]float64, len(phrases))
	total := 0.0
	for i, phrase := range phrases {
		weakCount := 0
		for _, r := range phrase {
			if _, ok := weak[unicode.ToLower(r)]; ok {
				weakCount++
			} else if _, ok := weak[r]; ok {
				weakCount++
			}
		}
		weights[i] = 1.0 + float64(weakCount)*factor
		total += weights[i]
	}
	return func() string {
		r := g.rnd.Float64() * total
		acc := 0.0
		for j, w := range weights {
			acc += w
			if r <= acc {
				return phrases[j]
			}
		}
		return phrases[len(phrases)-1]
	}
}

func applyCaps(rnd *rand.Rand, phrase string, capsPct float64) string {
	if capsPct <= 0 || rnd.Float64() > capsPct {
		return phrase
	}
	runes := []rune(phrase)
	if len(runes) == 0 {
		return phrase
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
