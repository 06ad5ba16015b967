package insurance

import (
	"context"
	"math/rand/v2"
)

// RandomPricer is a placeholder rating model: a uniformly random integer
// premium in [Min, Max). It ignores the product and the quote details.
type RandomPricer struct {
	Min, Max int
}

func NewRandomPricer() RandomPricer {
	return RandomPricer{Min: 500, Max: 1500}
}

func (p RandomPricer) Premium(context.Context, string, map[string]any) (int, error) {
	if p.Max <= p.Min {
		return p.Min, nil
	}
	return p.Min + rand.IntN(p.Max-p.Min), nil
}

// FixedPricer always quotes the same premium.
type FixedPricer int

func (p FixedPricer) Premium(context.Context, string, map[string]any) (int, error) {
	return int(p), nil
}
