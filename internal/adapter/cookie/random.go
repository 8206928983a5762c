package cookie

import "math/rand"

// Length is the number of characters in every cookie.
const Length = 32

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomGenerator produces alphanumeric delimiter cookies. They only need to
// be unlikely to collide with the child's own output, so math/rand is enough.
type RandomGenerator struct{}

// NewRandomGenerator creates a cookie generator.
func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// Generate returns a fresh Length-character cookie.
func (g *RandomGenerator) Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
