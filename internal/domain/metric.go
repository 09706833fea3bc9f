package domain

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Trend 指标趋势
type Trend string

const (
	TrendNone Trend = ""
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// ParseTrend 解析趋势字符串（大小写不敏感，空字符串表示未设置）
func ParseTrend(s string) (Trend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return TrendNone, nil
	case "up":
		return TrendUp, nil
	case "down":
		return TrendDown, nil
	case "flat":
		return TrendFlat, nil
	}
	return TrendNone, errors.Errorf("unknown trend %q (want up, down or flat)", s)
}

// Arrow 返回趋势箭头（未设置时为空）
func (t Trend) Arrow() string {
	switch t {
	case TrendUp:
		return "▲"
	case TrendDown:
		return "▼"
	case TrendFlat:
		return "▬"
	}
	return ""
}

// Value 指标值：数字或文本二选一。
// 数字用 decimal 保存，避免 float 在展示时丢精度。
type Value struct {
	number  decimal.Decimal
	text    string
	numeric bool
}

// NumberValue 创建数字值
func NumberValue(d decimal.Decimal) Value {
	return Value{number: d, numeric: true}
}

// TextValue 创建文本值
func TextValue(s string) Value {
	return Value{text: s}
}

// ParseValue 数字字面量解析为数字，其余按文本保存
func ParseValue(raw string) Value {
	if d, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
		return NumberValue(d)
	}
	return TextValue(raw)
}

// IsNumber 是否为数字值
func (v Value) IsNumber() bool { return v.numeric }

// Decimal 返回数字值（文本值返回 false）
func (v Value) Decimal() (decimal.Decimal, bool) {
	return v.number, v.numeric
}

// IsZero 未设置的值
func (v Value) IsZero() bool {
	return !v.numeric && v.text == ""
}

// String 展示用格式：数字带千分位，小数位数保持原样（100.00 不会变成 100）。
// 整数部分走 big.Int，超出 int64 的值也不会溢出。
func (v Value) String() string {
	if !v.numeric {
		return v.text
	}
	places := int32(0)
	if exp := v.number.Exponent(); exp < 0 {
		places = -exp
	}
	intPart, frac, _ := strings.Cut(v.number.Abs().StringFixed(places), ".")
	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return v.number.String()
	}
	out := humanize.BigComma(n)
	if frac != "" {
		out += "." + frac
	}
	if v.number.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// Metric 一条自动化指标（只读记录，carousel 不会修改它）
type Metric struct {
	ID    string
	Label string
	Value Value
	Unit  string
	Trend Trend
}

// DisplayValue 值 + 单位
func (m Metric) DisplayValue() string {
	if m.Unit == "" {
		return m.Value.String()
	}
	return m.Value.String() + " " + m.Unit
}
