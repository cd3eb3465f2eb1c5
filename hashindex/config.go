package hashindex

import (
	"errors"
	"fmt"
)

// DefaultPrimes is the capacity ladder used by DefaultConfig. Each step
// roughly doubles the previous one.
var DefaultPrimes = []int{
	1019, 2027, 4079, 8123, 16267, 32503, 65011, 130027,
	260111, 520279, 1040387, 2080763, 4161539, 8323151, 16646323,
}

// DefaultLoadFactor is the fill ratio that triggers growth.
const DefaultLoadFactor = 0.70

// ErrInvalidConfig is returned by New for an unusable configuration.
var ErrInvalidConfig = errors.New("hashindex: invalid config")

// Config holds the sizing parameters of a Table.
type Config struct {
	// Primes is the ascending sequence of table capacities.
	Primes []int
	// LoadFactor is the ratio of used slots to capacity at which the
	// table grows. Must be in (0, 1].
	LoadFactor float64
}

// DefaultConfig returns the standard ladder with a 0.70 load factor.
func DefaultConfig() Config {
	return Config{
		Primes:     append([]int(nil), DefaultPrimes...),
		LoadFactor: DefaultLoadFactor,
	}
}

// Validate checks the ladder and the load factor.
func (c Config) Validate() error {
	if len(c.Primes) == 0 {
		return fmt.Errorf("%w: empty prime ladder", ErrInvalidConfig)
	}
	prev := 0
	for _, p := range c.Primes {
		if p <= prev {
			return fmt.Errorf("%w: ladder must be strictly ascending and positive (got %d after %d)", ErrInvalidConfig, p, prev)
		}
		prev = p
	}
	if c.LoadFactor <= 0 || c.LoadFactor > 1 {
		return fmt.Errorf("%w: load factor %v outside (0, 1]", ErrInvalidConfig, c.LoadFactor)
	}
	return nil
}
