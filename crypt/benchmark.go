package crypt

import (
	"time"

	"github.com/pkg/errors"
)

// The round count is persisted as a single byte.
const (
	minBenchmarkRounds = 1
	maxBenchmarkRounds = 255
)

// The password and salt hashed while benchmarking. Their contents don't affect
// the running time.
var (
	benchmarkPassword = []byte("benchmark password")
	benchmarkSalt     = make([]byte, 16)
)

// Returns the parameter that Benchmark tunes for the configured hash, which is
// the one the persisted iteration count ends up in.
func (k *KDF) rounds() uint32 {
	switch k.params.Hash {
	case 0, 2:
		return k.params.I2
	default:
		return k.params.I1
	}
}

// Benchmark returns how many rounds of the configured hash (or derivation, for
// the no-hashing sentinel) would take roughly the target duration, clamped to
// [1, 255]. The per-round cost is measured once and then reused, so the result
// never decreases as the target grows.
func (k *KDF) Benchmark(target time.Duration) (int, error) {
	if k.roundCost == 0 {
		rounds := k.rounds()
		if rounds == 0 {
			return 0, errors.New("the configured hash has no rounds to benchmark")
		}

		start := time.Now()
		if _, err := k.Transform(benchmarkPassword, benchmarkSalt); err != nil {
			return 0, errors.Wrap(err, "benchmark failed")
		}
		elapsed := time.Since(start)

		k.roundCost = elapsed / time.Duration(rounds)
		if k.roundCost <= 0 {
			k.roundCost = time.Nanosecond
		}
	}

	if target <= 0 {
		return minBenchmarkRounds, nil
	}

	count := int64(target / k.roundCost)
	if count < minBenchmarkRounds {
		return minBenchmarkRounds, nil
	} else if count > maxBenchmarkRounds {
		return maxBenchmarkRounds, nil
	}
	return int(count), nil
}
