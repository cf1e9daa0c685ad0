package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{"0.01", 0.01, true},
		{"1.005", 1.01, true}, // half-up rounding
		{" 2.50 ", 2.5, true},
		{"1200", 1200, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}
