package board

import "testing"

func TestSquareNotation(t *testing.T) {
	tests := []struct {
		name     string
		row, col int
	}{
		{"a1", 0, 0},
		{"e1", 0, 4},
		{"c3", 2, 2},
		{"a5", 4, 0},
		{"e5", 4, 4},
	}
	for _, tc := range tests {
		s, err := ParseSquare(tc.name)
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", tc.name, err)
		}
		if s.Row() != tc.row || s.Col() != tc.col {
			t.Errorf("%s = (%d,%d), want (%d,%d)", tc.name, s.Row(), s.Col(), tc.row, tc.col)
		}
		if s.String() != tc.name {
			t.Errorf("String() = %q, want %q", s.String(), tc.name)
		}
	}

	for _, bad := range []string{"", "f1", "a6", "a0", "c33"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Errorf("ParseSquare(%q) succeeded", bad)
		}
	}
}

func TestMoveNotation(t *testing.T) {
	tests := []struct {
		in      string
		hasFrom bool
	}{
		{"c3", false},
		{"a1a2", true},
		{"e5d5", true},
	}
	for _, tc := range tests {
		m, err := ParseMove(tc.in)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", tc.in, err)
		}
		if m.HasFrom() != tc.hasFrom {
			t.Errorf("%s HasFrom = %v, want %v", tc.in, m.HasFrom(), tc.hasFrom)
		}
		if m.String() != tc.in {
			t.Errorf("String() = %q, want %q", m.String(), tc.in)
		}
		if m == NoMove {
			t.Errorf("%s packs to NoMove", tc.in)
		}
	}

	// a1 as a placement and as a destination must not pack to 0.
	if NewPlacement(NewSquare(0, 0)) == NoMove {
		t.Error("placement on a1 packs to NoMove")
	}
	if got := NoMove.String(); got != "0000" {
		t.Errorf("NoMove.String() = %q", got)
	}
	if r := NewPlacement(Center).Reverse(); r != NoMove {
		t.Errorf("placement reverse = %s, want NoMove", r)
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	layouts := []string{
		"5/5/5/5/5",
		"AA3/5/5/5/3BB",
		"BA3/A4/2A2/4A/3AB",
		"ABABA/BABAB/AB1AB/ABABA/BABA1",
	}
	for _, l := range layouts {
		b, err := ParseLayout(l)
		if err != nil {
			t.Fatalf("ParseLayout(%q): %v", l, err)
		}
		if got := b.Layout(); got != l {
			t.Errorf("Layout() = %q, want %q", got, l)
		}
	}

	for _, bad := range []string{"5/5/5/5", "6/5/5/5/5", "AAAAA/AAAAA/AAA2/5/5", "4X/5/5/5/5"} {
		if _, err := ParseLayout(bad); err == nil {
			t.Errorf("ParseLayout(%q) succeeded", bad)
		}
	}
}
