package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRandom отдает заранее заданный байт
type fixedRandom struct {
	b byte
}

func (f fixedRandom) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = f.b
	}
	return len(p), nil
}

type failingRandom struct{}

func (failingRandom) Read(p []byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestTokenGenerator_Generate(t *testing.T) {
	gen := NewTokenGenerator(nil)

	raw, digest, err := gen.Generate()
	require.NoError(t, err)

	// 32 байта в hex = 64 символа
	assert.Len(t, raw, 64)
	assert.Len(t, digest, 64)
	assert.NotEqual(t, raw, digest, "digest must not equal raw token")

	sum := sha256.Sum256([]byte(raw))
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)
	assert.Equal(t, digest, HashToken(raw))
}

func TestTokenGenerator_Generate_Unique(t *testing.T) {
	gen := NewTokenGenerator(nil)
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		raw, _, err := gen.Generate()
		require.NoError(t, err)
		assert.False(t, seen[raw], "token must be unique")
		seen[raw] = true
	}
}

func TestTokenGenerator_Deterministic(t *testing.T) {
	gen := NewTokenGenerator(fixedRandom{b: 0xab})

	raw, digest, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(bytes.Repeat([]byte{0xab}, TokenBytes)), raw)
	assert.Equal(t, HashToken(raw), digest)
}

func TestTokenGenerator_RandomFailure(t *testing.T) {
	gen := NewTokenGenerator(failingRandom{})

	_, _, err := gen.Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")

	_, err = gen.NewSessionID()
	require.Error(t, err)
}

func TestTokenGenerator_NewSessionID(t *testing.T) {
	gen := NewTokenGenerator(nil)

	id1, err := gen.NewSessionID()
	require.NoError(t, err)
	id2, err := gen.NewSessionID()
	require.NoError(t, err)

	// base64url без паддинга для 32 байт = 43 символа
	assert.Len(t, id1, 43)
	assert.NotEqual(t, id1, id2)
	assert.NotContains(t, id1, "=")
	assert.NotContains(t, id1, "+")
	assert.NotContains(t, id1, "/")
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	// известный вектор SHA256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashToken("abc"))
}
