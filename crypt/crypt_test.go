package crypt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Should be able to decompress the compressed empty array.
func TestDecompressMinCompressed(t *testing.T) {
	compressed, err := Compress(EmptyData)
	assert.NoError(t, err)
	assert.NotEmpty(t, compressed)

	decompressed, err := Decompress(compressed)
	assert.NoError(t, err)

	assert.Equal(t, string(EmptyData), string(decompressed))
}

func TestDecompressTooShort(t *testing.T) {
	minCompressed, err := Compress([]byte{})
	assert.NoError(t, err)

	// Check all possible sizes below the minimum compressed length to ensure that
	// they error.
	for size := len(minCompressed) - 1; size >= 0; size-- {
		_, err := Decompress(minCompressed[:size])
		assert.Error(t, err)
	}
}

// Decompressing invalid data should fail.
func TestDecompressInvalid(t *testing.T) {
	// Null data is certainly invalid.
	_, err := Decompress(make([]byte, 50))
	assert.Error(t, err)
}

// Compression and decompression are inverse operations, and therefore passing
// input through the compressor and then the decompressor should yield the input
// data once again.
func TestCompressAndDecompress(t *testing.T) {
	for _, data := range AllData {
		compressed, err := Compress(data)
		assert.NoError(t, err)

		decompressed, err := Decompress(compressed)
		assert.NoError(t, err)

		assert.Equal(t, string(data), string(decompressed))
	}
}

// The legacy scheme is slow by design, so these only run in long mode.
func TestLegacySealAndOpen(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping legacy scheme test in short mode")
	}
	t.Parallel()

	iv := randomBytes[:16]
	ciphertext, err := SealLegacy("password", iv, LongData)
	require.NoError(t, err)

	plaintext, err := OpenLegacy("password", iv, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, LongData, plaintext)

	_, err = OpenLegacy("incorrect", iv, ciphertext)
	assert.Error(t, err)
}

func TestLegacyEmptyIV(t *testing.T) {
	t.Parallel()

	_, err := OpenLegacy("password", nil, LongData)
	assert.Error(t, err)
}

func TestLegacyKeySize(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping legacy scheme test in short mode")
	}
	t.Parallel()

	assert.Len(t, LegacyKey("password", randomBytes[:12]), LegacyKeySize)
}

// Benchmarking must be clamped to the range of a single byte.
func TestBenchmarkClamped(t *testing.T) {
	t.Parallel()

	k := mustKDF(NoHashing)

	rounds, err := k.Benchmark(0)
	require.NoError(t, err)
	assert.Equal(t, 1, rounds)

	rounds, err = k.Benchmark(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 255, rounds)
}

// Longer targets never give fewer rounds.
func TestBenchmarkMonotonic(t *testing.T) {
	t.Parallel()

	k := mustKDF(2)

	previous := 0
	for _, target := range []time.Duration{
		time.Microsecond,
		time.Millisecond,
		10 * time.Millisecond,
		100 * time.Millisecond,
		time.Second,
		10 * time.Second,
	} {
		rounds, err := k.Benchmark(target)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rounds, previous, "target %s", target)
		previous = rounds
	}
}

func TestBenchmarkWithoutRounds(t *testing.T) {
	t.Parallel()

	k, err := New(Params{Hash: 2})
	require.NoError(t, err)

	_, err = k.Benchmark(time.Second)
	assert.Error(t, err)
}
