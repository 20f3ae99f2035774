package mathx

import "testing"

func TestClampSwapsBounds(t *testing.T) {
	if got := Clamp(5, 10, 0); got != 5 {
		t.Fatalf("Clamp(5,10,0)=%d", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Fatalf("Clamp low=%d", got)
	}
	if got := Clamp(uint16(900), 1, 752); got != 752 {
		t.Fatalf("Clamp high=%d", got)
	}
	if !Between(3, 5, 1) || Between(6, 1, 5) {
		t.Fatal("Between mismatch")
	}
	if Min(2, 3) != 2 || Max(2, 3) != 3 {
		t.Fatal("Min/Max mismatch")
	}
}

func TestIntDiv(t *testing.T) {
	cases := []struct {
		a, b, want uint
	}{
		{752, 376, 2},
		{752, 300, 3},
		{752, 330, 2},
		{480, 64, 8},
		{5, 2, 3},
		{7, 0, 0},
	}
	for _, c := range cases {
		if got := RoundDiv(c.a, c.b); got != c.want {
			t.Fatalf("RoundDiv(%d,%d)=%d want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestAlignUp(t *testing.T) {
	for _, c := range []struct{ v, n, want int }{
		{0, 2, 0}, {1, 2, 2}, {2, 2, 2}, {751, 2, 752}, {5, 4, 8},
	} {
		if got := AlignUp(c.v, c.n); got != c.want {
			t.Fatalf("AlignUp(%d,%d)=%d want %d", c.v, c.n, got, c.want)
		}
	}
}
