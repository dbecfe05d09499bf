package bdoc

import (
	"math/big"
	"testing"
)

func TestParseDecimal_PreservesScale(t *testing.T) {
	tests := []struct {
		input string
		scale int32
		coef  string
	}{
		{"107.78", 2, "10778"},
		{"107.780", 3, "107780"},
		{"0.0001234", 7, "1234"},
		{"-12.5", 1, "-125"},
		{"42", 0, "42"},
		{"0", 0, "0"},
		{"123456789012345678901234567890.123456789", 9, "123456789012345678901234567890123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDecimal(tt.input)
			if err != nil {
				t.Fatalf("ParseDecimal failed: %v", err)
			}
			if d.Scale() != tt.scale {
				t.Errorf("Scale: expected %d, got %d", tt.scale, d.Scale())
			}
			if d.Coefficient().String() != tt.coef {
				t.Errorf("Coefficient: expected %s, got %s", tt.coef, d.Coefficient())
			}
			if d.String() != tt.input {
				t.Errorf("String: expected %q, got %q", tt.input, d.String())
			}
		})
	}
}

func TestParseDecimal_Invalid(t *testing.T) {
	for _, input := range []string{"", "-", ".5", "5.", "1.2.3", "1e5", "+1", "abc", "1_000", " 1"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseDecimal(input); err == nil {
				t.Errorf("Expected error for %q", input)
			}
		})
	}
}

func TestDecimal_NegativeZeroNormalizes(t *testing.T) {
	d := MustDecimal("-0.00")
	if d.String() != "0.00" {
		t.Errorf("Expected 0.00, got %s", d.String())
	}
	if d.Sign() != 0 {
		t.Errorf("Expected sign 0, got %d", d.Sign())
	}
}

func TestDecimal_SmallMagnitudePadding(t *testing.T) {
	d, err := NewDecimal(big.NewInt(-5), 3)
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "-0.005" {
		t.Errorf("Expected -0.005, got %s", d.String())
	}
	if _, err := NewDecimal(big.NewInt(1), -1); err == nil {
		t.Error("Expected error for negative scale")
	}
}

func TestDecimal_CmpVsEqual(t *testing.T) {
	a := MustDecimal("107.78")
	b := MustDecimal("107.780")
	if a.Cmp(b) != 0 {
		t.Errorf("Expected numeric equality")
	}
	if a.Equal(b) {
		t.Errorf("Expected structural inequality across scales")
	}
	if MustDecimal("1.5").Cmp(MustDecimal("1.49")) != 1 {
		t.Errorf("Expected 1.5 > 1.49")
	}
	if DecimalFromInt64(-3).Cmp(MustDecimal("-2.99")) != -1 {
		t.Errorf("Expected -3 < -2.99")
	}
}

func TestDecimal_ZeroValue(t *testing.T) {
	var d Decimal
	if d.String() != "0" {
		t.Errorf("Expected 0, got %s", d.String())
	}
	if !d.Equal(DecimalFromInt64(0)) {
		t.Errorf("Zero Decimal should equal DecimalFromInt64(0)")
	}
}

func TestDecimal_Float64(t *testing.T) {
	if f := MustDecimal("107.78").Float64(); f != 107.78 {
		t.Errorf("Expected 107.78, got %v", f)
	}
}
