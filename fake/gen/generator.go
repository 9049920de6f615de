package gen

import (
	"math/rand"
	"time"
)

// Generator holds state for generating random data in certain distributions.
// It is not threadsafe; every value it produces is determined by the seed and
// the order of calls.
type Generator struct {
	r  *rand.Rand
	zs map[int]*rand.Zipf
	ps map[int]*PermutationGenerator
}

// NewGenerator gets a new Generator
func NewGenerator(seed int64) *Generator {
	return &Generator{
		r:  rand.New(rand.NewSource(seed)),
		zs: make(map[int]*rand.Zipf),
		ps: make(map[int]*PermutationGenerator),
	}
}

// Rand returns the underlying source of randomness.
func (g *Generator) Rand() *rand.Rand {
	return g.r
}

// Uint64 gets a zipfian random uint64 in [0, cardinality).
func (g *Generator) Uint64(cardinality int) uint64 {
	if cardinality <= 1 {
		return 0
	}
	z, ok := g.zs[cardinality]
	if !ok {
		// We subtract one from cardinality because rand.Zipf generates values
		// in [0, imax], but the expectation from funcs like rand.Intn is to
		// generate values in [0, n). Also since we can generate 0, this means
		// that the actual cardinality of the values we can return matches
		// "cardinality".
		imax := uint64(cardinality) - 1
		v := 0.05 * float64(imax)
		if v < 1.0 {
			v = 1.0
		}
		z = rand.NewZipf(g.r, 1.1, v, imax)
		g.zs[cardinality] = z
	}
	return z.Uint64()
}

// ID picks an identifier in [1, n]. With zipf set, a few identifiers are
// picked far more often than the rest; the popular ones are scattered over
// the range by a permutation rather than clustered at 1.
func (g *Generator) ID(n int, zipf bool) uint64 {
	if n <= 1 {
		return 1
	}
	if !zipf {
		return uint64(g.r.Intn(n)) + 1
	}
	p, ok := g.ps[n]
	if !ok {
		p = NewPermutationGenerator(int64(n), int64(n)%7+1)
		g.ps[n] = p
	}
	return uint64(p.Permute(int64(g.Uint64(n)))) + 1
}

// IntBetween returns an int in [min, max].
func (g *Generator) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + g.r.Intn(max-min+1)
}

// Float64Between returns a float64 in [min, max).
func (g *Generator) Float64Between(min, max float64) float64 {
	return min + g.r.Float64()*(max-min)
}

// Chance returns true with probability p.
func (g *Generator) Chance(p float64) bool {
	return g.r.Float64() < p
}

// TimeBetween returns a time in [from, to), truncated to the second.
func (g *Generator) TimeBetween(from, to time.Time) time.Time {
	span := to.Sub(from)
	if span <= time.Second {
		return from
	}
	return from.Add(time.Duration(g.r.Int63n(int64(span/time.Second))) * time.Second)
}

// Weighted picks an index into weights with probability proportional to its
// weight.
func (g *Generator) Weighted(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := g.r.Float64() * total
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}

// Pick returns a random element of choices.
func (g *Generator) Pick(choices []string) string {
	return choices[g.r.Intn(len(choices))]
}

// Permutation stuff

// PermutationGenerator provides a way to pass integer IDs through a permutation
// map that is pseudorandom but repeatable. This could be done with rand.Perm,
// but that would require storing a [Iterations]int64 array, which we want to avoid
// for large values of Iterations.
// It works by using a Linear Congruence Generator (https://en.wikipedia.org/wiki/Linear_congruential_generator)
// with modulus m = Iterations,
// c = an arbitrary prime,
// a = computed to ensure the full period.
// relevant stackoverflow: http://cs.stackexchange.com/questions/29822/lazily-computing-a-random-permutation-of-the-positive-integers
type PermutationGenerator struct {
	a int64
	c int64
	m int64
}

// NewPermutationGenerator returns a PermutationGenerator which will permute
// numbers in [0, m).
func NewPermutationGenerator(m int64, seed int64) *PermutationGenerator {
	a := multiplierFromModulus(m, seed)
	c := int64(22695479)
	if m%c == 0 {
		c = 1
	}
	return &PermutationGenerator{a % m, c % m, m}
}

// Permute gets the permuted value for n.
func (p *PermutationGenerator) Permute(n int64) int64 {
	// run one step of the LCG
	return (n*p.a + p.c) % p.m
}

// LCG parameters must satisfy three conditions:
// 1. m and c are relatively prime (satisfied for prime c != m)
// 2. a-1 is divisible by all prime factors of m
// 3. a-1 is divisible by 4 if m is divisible by 4
// Additionally, a seed can be used to select between different permutations
func multiplierFromModulus(m int64, seed int64) int64 {
	factors := primeFactors(m)
	product := int64(1)
	for p := range factors {
		// satisfy condition 2
		product *= p
	}

	if m%4 == 0 {
		// satisfy condition 3
		product *= 2
	}

	return product*seed + 1
}

// Returns map of {integerFactor: count, ...}
// This is a naive algorithm that will not work well for large prime n.
func primeFactors(n int64) map[int64]int {
	factors := make(map[int64]int)
	for i := int64(2); i*i <= n; i++ {
		for n%i == 0 {
			factors[i]++
			n /= i
		}
	}
	if n > 1 {
		factors[n]++
	}
	return factors
}
