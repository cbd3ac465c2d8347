package cellspace

import "testing"

func TestBounds_Contains_RejectsOutOfRangeCoordinates(t *testing.T) {
	// GIVEN a 3x3 2D grid
	b := Bounds{Width: 3, Height: 3}

	// THEN in-range coordinates are contained and out-of-range ones are not
	cases := []struct {
		x, y, z int
		want    bool
	}{
		{0, 0, 0, true},
		{2, 2, 0, true},
		{-1, 0, 0, false},
		{3, 0, 0, false},
		{0, 0, 1, false}, // Depth defaults to 1 plane
	}
	for _, c := range cases {
		if got := b.Contains(c.x, c.y, c.z); got != c.want {
			t.Errorf("Contains(%d,%d,%d): got %v, want %v", c.x, c.y, c.z, got, c.want)
		}
	}
}

func TestNeighbors8_CoversAllEightOffsets(t *testing.T) {
	// GIVEN the 8-neighborhood offset table
	seen := map[[2]int]bool{}
	for _, d := range Neighbors8 {
		seen[d] = true
	}

	// THEN every offset except (0,0) in the 3x3 block is present exactly once
	if len(seen) != 8 {
		t.Fatalf("Neighbors8: got %d distinct offsets, want 8", len(seen))
	}
	if seen[[2]int{0, 0}] {
		t.Errorf("Neighbors8 should not include the center offset")
	}
}
