package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrend(t *testing.T) {
	cases := map[string]Trend{
		"":      TrendNone,
		"up":    TrendUp,
		" Down": TrendDown,
		"FLAT":  TrendFlat,
	}
	for in, want := range cases {
		got, err := ParseTrend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTrend("sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"sideways"`)
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "12,845", NumberValue(decimal.NewFromInt(12845)).String())
	assert.Equal(t, "1,234.5", ParseValue("1234.5").String())
	assert.Equal(t, "98.25", ParseValue("98.25").String())
	assert.Equal(t, "-3", ParseValue("-3").String())
	assert.Equal(t, "n/a", ParseValue("n/a").String())

	assert.Equal(t, "100.00", ParseValue("100.00").String(), "author precision is kept")
	assert.Equal(t, "-0.50", ParseValue("-0.50").String())
	assert.Equal(t, "1,000", ParseValue("1e3").String())
	assert.Equal(t, "123,456,789,012,345,678,901,234", ParseValue("123456789012345678901234").String())
	assert.Equal(t, "-98,765,432,109,876,543,210.125", ParseValue("-98765432109876543210.125").String())

	v := ParseValue("4.2m")
	assert.False(t, v.IsNumber())
	assert.Equal(t, "4.2m", v.String())
}

func TestValue_IsZero(t *testing.T) {
	assert.True(t, Value{}.IsZero())
	assert.False(t, NumberValue(decimal.Zero).IsZero())
	assert.False(t, TextValue("ok").IsZero())
}

func TestMetric_DisplayValue(t *testing.T) {
	m := Metric{ID: "runs", Label: "Runs", Value: ParseValue("1200"), Unit: "runs", Trend: TrendUp}
	assert.Equal(t, "1,200 runs", m.DisplayValue())
	assert.Equal(t, "▲", m.Trend.Arrow())

	m.Unit = ""
	assert.Equal(t, "1,200", m.DisplayValue())
	assert.Equal(t, "", TrendNone.Arrow())
}
