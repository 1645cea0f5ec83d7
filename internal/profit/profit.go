// Package profit computes the net amount a seller keeps after marketplace fees.
package profit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for input that is not a number.
	ErrInvalidAmount = errors.New("profit: amount is not a number")
	// ErrNegativeAmount is returned for amounts below zero.
	ErrNegativeAmount = errors.New("profit: amount is negative")
)

// Calculator applies a platform fee and then an advance fee on the remainder.
type Calculator struct {
	PlatformFee decimal.Decimal
	AdvanceFee  decimal.Decimal
}

// Default returns the 20% platform fee followed by the 40% advance deduction.
func Default() Calculator {
	return Calculator{
		PlatformFee: decimal.RequireFromString("0.20"),
		AdvanceFee:  decimal.RequireFromString("0.40"),
	}
}

// New builds a calculator from decimal strings; empty strings keep the defaults.
func New(platformFee, advanceFee string) (Calculator, error) {
	c := Default()
	if s := strings.TrimSpace(platformFee); s != "" {
		v, err := parseFee(s)
		if err != nil {
			return Calculator{}, fmt.Errorf("platform fee: %w", err)
		}
		c.PlatformFee = v
	}
	if s := strings.TrimSpace(advanceFee); s != "" {
		v, err := parseFee(s)
		if err != nil {
			return Calculator{}, fmt.Errorf("advance fee: %w", err)
		}
		c.AdvanceFee = v
	}
	return c, nil
}

func parseFee(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a decimal", s)
	}
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s is outside [0, 1]", v)
	}
	return v, nil
}

// amountRe admits plain decimal notation only: at most 15 integer digits and
// 8 fraction digits, no exponent.
var amountRe = regexp.MustCompile(`^-?(\d{1,15}(\.\d{1,8})?|\.\d{1,8})$`)

// Parse reads a user supplied amount such as "100", "25.50" or "$40".
func Parse(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if !amountRe.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if v.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return v, nil
}

// NetProfit returns amount × (1 − platform fee) × (1 − advance fee) rounded to cents.
func (c Calculator) NetProfit(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	one := decimal.NewFromInt(1)
	net := amount.Mul(one.Sub(c.PlatformFee)).Mul(one.Sub(c.AdvanceFee))
	return net.Round(2), nil
}

// Rate is the share of the gross amount the seller keeps.
func (c Calculator) Rate() decimal.Decimal {
	one := decimal.NewFromInt(1)
	return one.Sub(c.PlatformFee).Mul(one.Sub(c.AdvanceFee))
}

// Reply formats the chat answer for free text. ok is false when text is not
// a valid amount, in which case msg is the validation hint.
func (c Calculator) Reply(text string) (msg string, ok bool) {
	amount, err := Parse(text)
	if err != nil {
		return "Please send a valid number (e.g., 10, 25.50).", false
	}
	net, err := c.NetProfit(amount)
	if err != nil {
		return "Please send a valid number (e.g., 10, 25.50).", false
	}
	return fmt.Sprintf("For $%s, your net profit after Fiverr fees is: *$%s*", amount.String(), net.StringFixed(2)), true
}
