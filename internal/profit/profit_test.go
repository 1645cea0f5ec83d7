package profit

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNetProfitMatchesRate(t *testing.T) {
	calc := Default()
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"100", "48.00"},
		{"25.50", "12.24"},
		{"10", "4.80"},
		{"0.01", "0.00"},
		{"0.02", "0.01"},
		{"1234.56", "592.59"},
	}
	for _, tc := range cases {
		amount := decimal.RequireFromString(tc.in)
		got, err := calc.NetProfit(amount)
		if err != nil {
			t.Fatalf("NetProfit(%s): %v", tc.in, err)
		}
		if got.StringFixed(2) != tc.want {
			t.Errorf("NetProfit(%s) = %s, want %s", tc.in, got.StringFixed(2), tc.want)
		}
		if want := amount.Mul(decimal.RequireFromString("0.48")).Round(2); !got.Equal(want) {
			t.Errorf("NetProfit(%s) = %s, differs from amount*0.48 = %s", tc.in, got, want)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12abc", "NaN", "$", "1,5"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidAmount", in, err)
		}
	}
	if _, err := Parse("-5"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("Parse(-5) err = %v, want ErrNegativeAmount", err)
	}
	v, err := Parse(" $40 ")
	if err != nil || !v.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("Parse($40) = %s, %v", v, err)
	}
}

func TestParseBoundsNotation(t *testing.T) {
	for _, in := range []string{"1e10000000", "1e3", "1E2", "2.5e1", "1234567890123456", "1.123456789", "12.", "0x10", "+5", "1.2.3"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidAmount", in, err)
		}
	}
	for in, want := range map[string]string{
		"999999999999999": "999999999999999",
		"0.5":             "0.5",
		".5":              "0.5",
		"1.12345678":      "1.12345678",
	} {
		v, err := Parse(in)
		if err != nil || !v.Equal(decimal.RequireFromString(want)) {
			t.Errorf("Parse(%q) = %s, %v; want %s", in, v, err, want)
		}
	}

	msg, ok := Default().Reply("1e100000")
	if ok || len(msg) > 100 {
		t.Fatalf("exponent reply ok=%v len=%d", ok, len(msg))
	}
}

func TestNetProfitRejectsNegative(t *testing.T) {
	if _, err := Default().NetProfit(decimal.NewFromInt(-1)); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestReply(t *testing.T) {
	msg, ok := Default().Reply("100")
	if !ok {
		t.Fatalf("expected ok reply, got %q", msg)
	}
	if msg != "For $100, your net profit after Fiverr fees is: *$48.00*" {
		t.Fatalf("unexpected reply %q", msg)
	}
	msg, ok = Default().Reply("hello")
	if ok || msg != "Please send a valid number (e.g., 10, 25.50)." {
		t.Fatalf("unexpected validation reply %q ok=%v", msg, ok)
	}
}

func TestNewValidatesFees(t *testing.T) {
	c, err := New("", "")
	if err != nil {
		t.Fatalf("New defaults: %v", err)
	}
	if !c.Rate().Equal(decimal.RequireFromString("0.48")) {
		t.Fatalf("default rate = %s", c.Rate())
	}
	c, err = New("0.10", "0")
	if err != nil {
		t.Fatalf("New custom: %v", err)
	}
	got, _ := c.NetProfit(decimal.NewFromInt(100))
	if got.StringFixed(2) != "90.00" {
		t.Fatalf("custom net = %s", got)
	}
	if _, err := New("1.5", ""); err == nil {
		t.Fatal("expected error for fee above 1")
	}
	if _, err := New("", "x"); err == nil {
		t.Fatal("expected error for non-decimal fee")
	}
}
