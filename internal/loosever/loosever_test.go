package loosever

import "testing"

func TestCompare(t *testing.T) {
	tt := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "19.0.0", -1},
		{"19.0.0", "2.0.0", 1},
		{"1.2", "1.2.0", -1}, // shorter version sorts below its own zero-padding
		{"1.10", "1.2", 1},
		{"1.2.0", "1.2.0", 0},
		{"2.0.0-beta", "2.0.0", -1}, // non-numeric trailing segment sorts below numeric
	}
	for _, tc := range tt {
		got := Parse(tc.a).Compare(Parse(tc.b))
		if sign(got) != sign(tc.want) {
			t.Errorf("Compare(%q, %q) = %d, want sign %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestLargest(t *testing.T) {
	got := Largest([]string{"1.0.0", "19.0.0", "2.0.0"})
	if got != "19.0.0" {
		t.Fatalf("Largest() = %q, want %q", got, "19.0.0")
	}
}

func TestLargestIsMemberOfInput(t *testing.T) {
	in := []string{"3.1", "3.1.1", "3.0.9", "10.0"}
	got := Largest(in)
	found := false
	for _, v := range in {
		if v == got {
			found = true
		}
	}
	if !found {
		t.Fatalf("Largest() = %q not in input set %v", got, in)
	}
	for _, v := range in {
		if v == got {
			continue
		}
		if Parse(got).Compare(Parse(v)) < 0 {
			t.Fatalf("Largest() = %q is not >= %q", got, v)
		}
	}
}
