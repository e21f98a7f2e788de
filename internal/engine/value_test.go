package engine

import (
	"testing"

	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

func TestCompare_Numbers(t *testing.T) {
	cases := []struct {
		a, b pager.Value
		want int
	}{
		{pager.IntValue(1), pager.IntValue(2), -1},
		{pager.IntValue(2), pager.IntValue(1), 1},
		{pager.IntValue(5), pager.IntValue(5), 0},
		{pager.FloatValue(1.5), pager.FloatValue(2.5), -1},
	}
	for _, c := range cases {
		got, err := Compare(c.a, c.b)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("Compare(%+v, %+v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCompare_Strings(t *testing.T) {
	got, err := Compare(pager.StringValue("apple"), pager.StringValue("banana"))
	if err != nil {
		t.Fatal(err)
	}
	if got >= 0 {
		t.Fatalf("expected apple < banana, got %d", got)
	}
}

func TestCompare_MismatchedKindsError(t *testing.T) {
	if _, err := Compare(pager.IntValue(1), pager.StringValue("1")); err == nil {
		t.Fatal("expected an error comparing an int64 to a string")
	}
}

func TestMatchLike(t *testing.T) {
	cases := []struct {
		s, pattern string
		want       bool
	}{
		{"Dura", "D%", true},
		{"Dura", "d%", false},
		{"Dura", "%ura", true},
		{"Dura", "D_ra", true},
		{"Dura", "D__a", true},
		{"Dura", "Tenera", false},
		{"", "%", true},
		{"anything", "%%%", true},
		{"abc", "a%c", true},
		{"abc", "a%d", false},
	}
	for _, c := range cases {
		if got := matchLike(c.s, c.pattern); got != c.want {
			t.Errorf("matchLike(%q, %q) = %v, want %v", c.s, c.pattern, got, c.want)
		}
	}
}

func TestDisplayString(t *testing.T) {
	cases := []struct {
		v    pager.Value
		want string
	}{
		{pager.IntValue(5), "5"},
		{pager.BoolValue(true), "true"},
		{pager.StringValue("x"), "x"},
		{pager.NullValue(), ""},
	}
	for _, c := range cases {
		if got := displayString(c.v); got != c.want {
			t.Errorf("displayString(%+v) = %q, want %q", c.v, got, c.want)
		}
	}
}
