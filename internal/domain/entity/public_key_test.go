package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublicKey(t *testing.T) {
	raw := make([]byte, PublicKeyLength)
	raw[0] = 7

	pk, err := NewPublicKey(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, pk.Bytes())

	raw[0] = 8
	assert.Equal(t, byte(7), pk[0], "key must not alias the input")

	_, err = NewPublicKey(raw[:31])
	assert.ErrorContains(t, err, "invalid public key input")
	_, err = NewPublicKey(append(raw, 0))
	assert.Error(t, err)
	_, err = NewPublicKey(nil)
	assert.Error(t, err)
}

func TestPublicKey_Base58(t *testing.T) {
	var zero PublicKey
	assert.Equal(t, "11111111111111111111111111111111", zero.String())

	parsed, err := ParsePublicKey("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.True(t, parsed.Equals(zero))

	kp, err := KeypairFromSeed(make([]byte, 32))
	require.NoError(t, err)
	roundTrip, err := ParsePublicKey(kp.PublicKey().String())
	require.NoError(t, err)
	assert.True(t, roundTrip.Equals(kp.PublicKey()))

	_, err = ParsePublicKey("0OIl")
	assert.Error(t, err)
	_, err = ParsePublicKey("111")
	assert.Error(t, err)
	assert.Panics(t, func() { MustParsePublicKey("not base58 0") })
}

func TestPublicKey_JSON(t *testing.T) {
	kp, err := KeypairFromSeed(make([]byte, 32))
	require.NoError(t, err)
	pk := kp.PublicKey()

	data, err := json.Marshal(map[string]PublicKey{"pk": pk})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pk":"`+pk.String()+`"}`, string(data))

	var out map[string]PublicKey
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out["pk"].Equals(pk))
}

func TestKeypair_SignVerify(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	sig := kp.Sign([]byte("hello"))
	assert.True(t, kp.PublicKey().Verify([]byte("hello"), sig))
	assert.False(t, kp.PublicKey().Verify([]byte("hellO"), sig))

	_, err = KeypairFromSeed([]byte{1})
	assert.Error(t, err)
}
