package ports

import "math/rand/v2"

type Random interface {
	Float64() float64
	IntN(n int) int
}

type SystemRandom struct{}

func (SystemRandom) Float64() float64 {
	return rand.Float64()
}

func (SystemRandom) IntN(n int) int {
	return rand.IntN(n)
}
