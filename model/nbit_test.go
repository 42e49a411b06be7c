package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNBitRoundTripAndDifficulty(t *testing.T) {
	bits, err := NewNBitFromString("1e0cbb05")
	require.NoError(t, err)
	require.Equal(t, "1e0cbb05", bits.String())

	difficulty := bits.CalculateDifficulty()
	f, _ := difficulty.Float64()
	require.InDelta(t, 0.0003068360688, f, 1e-12)

	target := bits.CalculateTarget()
	require.Equal(t, "87862992749702277876753291758735394717545048148536728461472937357082624", target.String())
}

func TestNBitGenesisDifficultyIsOne(t *testing.T) {
	bits, err := NewNBitFromString("1d00ffff")
	require.NoError(t, err)

	difficulty := bits.CalculateDifficulty()
	f, _ := difficulty.Float64()
	require.InDelta(t, 1.0, f, 0.0000001)
}

func TestNBitSignBitYieldsZeroTarget(t *testing.T) {
	bits, err := NewNBitFromSlice([]byte{0x01, 0x00, 0x80, 0x01})
	require.NoError(t, err)
	require.Equal(t, int64(0), bits.CalculateTarget().Int64())
}

func TestToCompactInvertsCalculateTarget(t *testing.T) {
	bits, err := NewNBitFromString("1d00ffff")
	require.NoError(t, err)

	target := bits.CalculateTarget()
	recompacted := ToCompact(target)

	require.Equal(t, bits.CalculateTarget().String(), recompacted.CalculateTarget().String())
}
