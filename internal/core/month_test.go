package core

import (
	"errors"
	"testing"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"jan", Jan, true},
		{"Jan", Jan, true},
		{"January", Jan, true},
		{" DECEMBER ", Dec, true},
		{"sept", "", false},
		{"foo", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if tt.ok {
				if err != nil || got != tt.want {
					t.Fatalf("ParseMonth(%q) = %q, %v", tt.in, got, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidMonth) {
				t.Fatalf("ParseMonth(%q) expected ErrInvalidMonth, got %v", tt.in, err)
			}
		})
	}
}

func TestMonthLookups(t *testing.T) {
	if Jan.Name() != "January" || Jan.Short() != "Jan" || Jan.Number() != "01" {
		t.Fatalf("unexpected jan lookups: %s %s %s", Jan.Name(), Jan.Short(), Jan.Number())
	}
	if Dec.Index() != 11 || Dec.Number() != "12" {
		t.Fatalf("unexpected dec index/number: %d %s", Dec.Index(), Dec.Number())
	}
	if Month("xyz").Valid() || Month("xyz").Index() != -1 || Month("xyz").Short() != "" {
		t.Fatalf("unknown month should be invalid")
	}
	for _, m := range Months {
		if m.Emoji() == "" {
			t.Fatalf("missing emoji for %s", m)
		}
	}
}

func TestTaxonomy(t *testing.T) {
	cats := Categories()
	if len(cats) != 11 || cats[0] != "Housing" || cats[10] != OtherExpenses {
		t.Fatalf("unexpected categories: %v", cats)
	}
	if !IsSubcategory("Out", "Bar") || IsSubcategory("Out", "Rent") || IsSubcategory("Nope", "Bar") {
		t.Fatalf("unexpected subcategory membership")
	}
	subs := Subcategories("Gifts")
	subs[0] = "mutated"
	if Subcategories("Gifts")[0] != "Gifts" {
		t.Fatalf("Subcategories must return a copy")
	}
	if Subcategories("Nope") != nil || CategoryEmoji("Housing") == "" {
		t.Fatalf("unexpected lookups")
	}
}
