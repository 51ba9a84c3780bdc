package database

import (
	"testing"
	"time"

	"github.com/binex-dsk/libpassman/container"
	"github.com/binex-dsk/libpassman/crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint8(container.MaxVersion), cfg.Version)
	assert.Equal(t, uint8(8), cfg.HashIterations)
	assert.Equal(t, uint16(64), cfg.MemoryUsage)
	assert.Equal(t, uint8(15), cfg.ClearSeconds)
	assert.True(t, cfg.Compress)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	for name, modify := range map[string]func(*Config){
		"version zero":       func(c *Config) { c.Version = 0 },
		"version too large":  func(c *Config) { c.Version = container.MaxVersion + 1 },
		"hmac index":         func(c *Config) { c.HMAC = uint8(crypt.HMACCount()) },
		"hash index":         func(c *Config) { c.Hash = uint8(crypt.HashCount()) },
		"encryption index":   func(c *Config) { c.Encryption = uint8(crypt.EncryptionCount()) },
		"no iterations":      func(c *Config) { c.HashIterations = 0 },
		"no memory":          func(c *Config) { c.MemoryUsage = 0 },
		"IV of wrong length": func(c *Config) { c.IV = []byte("short") },
		"too much memory":    func(c *Config) { c.MemoryUsage = container.MaxMemoryUsage + 1 },
	} {
		cfg := DefaultConfig()
		modify(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

// Without a hash, iterations and memory don't matter.
func TestConfigValidateNoHashing(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Hash = crypt.NoHashing
	cfg.HashIterations = 0
	cfg.MemoryUsage = 0
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromYAML(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(`
hash: 2
encryption: 2
hashIterations: 4
name: work
keyFile: /tmp/key
`), &cfg))

	assert.Equal(t, uint8(2), cfg.Hash)
	assert.Equal(t, uint8(2), cfg.Encryption)
	assert.Equal(t, uint8(4), cfg.HashIterations)
	assert.Equal(t, "work", cfg.Name)
	assert.Equal(t, "/tmp/key", cfg.KeyFile)
	assert.Equal(t, "None", cfg.Description)
	assert.NoError(t, cfg.Validate())
}

func TestNewGeneratesIV(t *testing.T) {
	t.Parallel()

	for encryption := 0; encryption < crypt.EncryptionCount(); encryption++ {
		cfg := DefaultConfig()
		cfg.Encryption = uint8(encryption)

		d, err := New(cfg, newFakeStore())
		require.NoError(t, err)

		size, err := crypt.NonceSize(uint8(encryption))
		require.NoError(t, err)
		assert.Len(t, d.IV, size)
	}
}

func TestNewKeepsIV(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.IV = []byte("0123456789ab")

	d, err := New(cfg, newFakeStore())
	require.NoError(t, err)
	assert.Equal(t, cfg.IV, d.IV)

	cfg.IV[0] = 'x'
	assert.Equal(t, byte('0'), d.IV[0])
}

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestNewNoHashingIterations(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Hash = crypt.NoHashing
	cfg.HashIterations = 100

	d, err := New(cfg, newFakeStore())
	require.NoError(t, err)
	assert.Equal(t, uint8(container.DefaultHashIterations), d.HashIterations)
}

func TestRekey(t *testing.T) {
	t.Parallel()

	d := newTestDatabase(newFakeStore())
	require.NoError(t, d.SetPassword("password"))
	key, iv := append([]byte(nil), d.key...), append([]byte(nil), d.IV...)

	require.NoError(t, d.Rekey("password"))
	assert.NotEqual(t, iv, d.IV)
	assert.NotEqual(t, key, d.key)
	assert.Len(t, d.IV, len(iv))
}

func TestWipe(t *testing.T) {
	t.Parallel()

	d := newTestDatabase(newFakeStore())
	require.NoError(t, d.SetPassword("password"))
	d.AddEntry(NewEntry(TextField("Name", "x"), TextField("Password", "secret")))
	require.NoError(t, d.SaveStatementLog())

	d.Wipe()
	assert.False(t, d.HasKey())
	assert.Empty(t, d.StatementLog())
	assert.Equal(t, "", d.Entries()[0].Password())
	assert.Equal(t, "x", d.Entries()[0].Name())

	_, err := d.ProduceCiphertext()
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestEntryLookups(t *testing.T) {
	t.Parallel()

	d := newTestDatabase(newFakeStore())
	a := NewEntry(TextField("Name", "a"), TextField("Password", "pa"))
	b := NewEntry(TextField("Name", "b"), TextField("Password", "pb"))
	d.SetEntries([]*Entry{a, b})

	found, ok := d.EntryNamed("b")
	require.True(t, ok)
	assert.Same(t, b, found)

	found, ok = d.EntryWithPassword("pa")
	require.True(t, ok)
	assert.Same(t, a, found)

	_, ok = d.EntryNamed("B")
	assert.False(t, ok)

	assert.True(t, d.RemoveEntry(a))
	assert.False(t, d.RemoveEntry(a))
	assert.Equal(t, 1, d.Len())
	assert.True(t, d.Modified)
}

// The same settings reuse one measurement, and changing them measures again.
func TestBenchmarkReusesKDF(t *testing.T) {
	t.Parallel()

	d := newTestDatabase(newFakeStore())
	_, err := d.Benchmark(time.Millisecond)
	require.NoError(t, err)
	first := d.bench

	_, err = d.Benchmark(time.Second)
	require.NoError(t, err)
	assert.Same(t, first, d.bench)

	d.HMAC = 1
	_, err = d.Benchmark(time.Second)
	require.NoError(t, err)
	assert.NotSame(t, first, d.bench)
}

func TestClearAfter(t *testing.T) {
	t.Parallel()

	d := newTestDatabase(newFakeStore())
	assert.Equal(t, "15s", d.ClearAfter().String())
}
