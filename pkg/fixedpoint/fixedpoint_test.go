package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertDecimals_UpscaleIsLossless(t *testing.T) {
	x := big.NewInt(123)
	got := ConvertDecimals(6, 18, x)
	want, _ := new(big.Int).SetString("123000000000000", 10)
	assert.Equal(t, want, got)
}

func TestConvertDecimals_DownscaleFloors(t *testing.T) {
	x, _ := new(big.Int).SetString("1234567890123456789", 10)
	got := ConvertDecimals(18, 6, x)
	assert.Equal(t, big.NewInt(1234567), got)
}

func TestConvertDecimals_RoundTrip(t *testing.T) {
	x := big.NewInt(555)
	up := ConvertDecimals(6, 18, x)
	down := ConvertDecimals(18, 6, up)
	assert.Equal(t, x, down)
}

func TestMulFrac(t *testing.T) {
	a := big.NewInt(100)
	got := MulFrac(a, big.NewInt(3), big.NewInt(2))
	assert.Equal(t, big.NewInt(150), got)
}

func TestMulFrac_ZeroDenom(t *testing.T) {
	got := MulFrac(big.NewInt(10), big.NewInt(1), big.NewInt(0))
	assert.Equal(t, big.NewInt(0), got)
}

func TestMulDiv18Decimal(t *testing.T) {
	half := new(big.Int).Quo(Scale, big.NewInt(2))
	got := Mul(Scale, half)
	assert.Equal(t, half, got)
}

func TestDiv(t *testing.T) {
	got := Div(Scale, new(big.Int).Mul(big.NewInt(2), Scale))
	assert.Equal(t, new(big.Int).Quo(Scale, big.NewInt(2)), got)
}

func TestDiv_ZeroDenominator(t *testing.T) {
	got := Div(Scale, big.NewInt(0))
	assert.Equal(t, big.NewInt(0), got)
}

func TestIsUint256Max(t *testing.T) {
	assert.True(t, IsUint256Max(Uint256Max))
	assert.False(t, IsUint256Max(big.NewInt(1)))
}

func TestMaxMinAbs(t *testing.T) {
	assert.Equal(t, big.NewInt(5), Max(big.NewInt(5), big.NewInt(3)))
	assert.Equal(t, big.NewInt(3), Min(big.NewInt(5), big.NewInt(3)))
	assert.Equal(t, big.NewInt(5), Abs(big.NewInt(-5)))
}
