package crypt

import (
	"crypto/rand"
)

// NOTE: This file contains common test data used for the various tests we run.
// The tests themselves exist in other files.

// Used for testing empty data.
var EmptyData []byte = []byte("")
var SingleData []byte = []byte("a")
var DoubleData []byte = []byte("ab")
var ShortData []byte = []byte("abcdefghijklmnopqrstuvwxyz")
var LongData []byte = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
var UnicodeData []byte = []byte("a®Ďƃɕʶ ̂ΆԃЌԵﬗאر݃ݓޤ‎߅ࡄখஷഖคබໄ၇ꩦႦᄓᎄⷄꬓᏄᑖᣆᚅᛕᜅᜤᝄᝣ‴№⁷✚z")

var AllData [][]byte = [][]byte{
	EmptyData,
	SingleData,
	DoubleData,
	ShortData,
	LongData,
	UnicodeData,
}

// A global result for deoptimization and a bunch of random bytes.
var deoptimizer interface{}
var randomBytes = make([]byte, 512)
var _, _ = rand.Read(randomBytes)

// A 12 byte seed, the IV length of the default cipher.
var seed []byte = randomBytes[:12]

// Cheap parameters for every entry of the hash table, so tests that derive keys
// don't take forever.
func cheapParams(hash uint8) Params {
	var i1, i2, i3 uint32
	switch hash {
	case 0:
		i1, i2, i3 = HashParams(hash, 1, 1)
	case 1:
		i1, i2, i3 = HashParams(hash, 2, 0)
	case 2:
		i1, i2, i3 = HashParams(hash, 1, 0)
	default:
		i1, i2, i3 = HashParams(hash, 8, 0)
	}

	return Params{
		Hash: hash,
		I1:   i1,
		I2:   i2,
		I3:   i3,
		Seed: seed,
	}
}

// Builds a KDF from cheapParams, failing the test if that's not possible.
func mustKDF(hash uint8) *KDF {
	k, err := New(cheapParams(hash))
	if err != nil {
		panic(err)
	}
	return k
}
