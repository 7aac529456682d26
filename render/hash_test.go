package render

import (
	"testing"

	"sheetcore/coord"
)

func TestHashOf(t *testing.T) {
	cases := []struct {
		pos  coord.Pos
		want HashCoord
	}{
		{coord.Pos{X: 1, Y: 1}, HashCoord{X: 0, Y: 0}},
		{coord.Pos{X: 15, Y: 30}, HashCoord{X: 0, Y: 0}},
		{coord.Pos{X: 16, Y: 31}, HashCoord{X: 1, Y: 1}},
		{coord.Pos{X: 30, Y: 60}, HashCoord{X: 1, Y: 1}},
	}
	for _, c := range cases {
		if got := HashOf(c.pos); got != c.want {
			t.Errorf("HashOf(%v) = %v, want %v", c.pos, got, c.want)
		}
	}
}

func TestHashRectRoundTrips(t *testing.T) {
	h := HashCoord{X: 2, Y: 3}
	rect := h.Rect()
	if got := HashOf(rect.Min); got != h {
		t.Fatalf("HashOf(rect.Min) = %v, want %v", got, h)
	}
	if got := HashOf(rect.Max); got != h {
		t.Fatalf("HashOf(rect.Max) = %v, want %v", got, h)
	}
}

func TestVisibleHashesIncludesOrigin(t *testing.T) {
	offsets := coord.NewSheetOffsets()
	vp := Viewport{MinX: 0, MinY: 0, MaxX: 200, MaxY: 200, Scale: 1.0}
	hashes := VisibleHashes(vp, offsets)
	found := false
	for _, h := range hashes {
		if h == (HashCoord{0, 0}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected origin hash among %v", hashes)
	}
}

func TestHashPaddingBounds(t *testing.T) {
	if p := hashPadding(1.0); p < 2 || p > 30 {
		t.Fatalf("padding out of bounds: %d", p)
	}
	if p := hashPadding(0.05); p != 30 {
		t.Fatalf("expected padding clamped to 30 at small scale, got %d", p)
	}
	if p := hashPadding(20.0); p != 30 {
		t.Fatalf("expected padding clamped to 30 at large scale, got %d", p)
	}
}

func TestShouldUseSprite(t *testing.T) {
	if !ShouldUseSprite(0.15) {
		t.Fatalf("expected sprite cache below threshold")
	}
	if ShouldUseSprite(0.25) {
		t.Fatalf("expected MSDF draw above threshold")
	}
}
