package render

import "testing"

// fixedFont gives every rune the same advance and no kerning, enough
// to exercise wrap/align math without a real font atlas.
type fixedFont struct {
	advance    float64
	lineHeight float64
}

func (f fixedFont) Advance(r rune) float64    { return f.advance }
func (f fixedFont) LineHeight() float64       { return f.lineHeight }
func (f fixedFont) Kerning(a, b rune) float64 { return 0 }

func TestLayoutLabelSingleLine(t *testing.T) {
	font := fixedFont{advance: 10, lineHeight: 20}
	out := LayoutLabel(LabelSpec{Text: "abc", CellHeight: 20, BaseColor: 1}, font)
	if len(out.Chars) != 3 {
		t.Fatalf("expected 3 chars, got %d", len(out.Chars))
	}
	if out.Chars[1].X != 10 {
		t.Fatalf("expected second char at x=10, got %v", out.Chars[1].X)
	}
	if out.UnwrappedWidth != 30 {
		t.Fatalf("expected unwrapped width 30, got %v", out.UnwrappedWidth)
	}
}

func TestLayoutLabelWordWrap(t *testing.T) {
	font := fixedFont{advance: 10, lineHeight: 20}
	out := LayoutLabel(LabelSpec{
		Text: "aa bb cc", Wrap: WordWrap, MaxWidth: 25, CellHeight: 100,
	}, font)
	lineCount := 0
	lastY := -1.0
	for _, c := range out.Chars {
		if c.Y != lastY {
			lineCount++
			lastY = c.Y
		}
	}
	if lineCount < 2 {
		t.Fatalf("expected word wrap to produce multiple lines, got %d", lineCount)
	}
}

func TestLayoutLabelExplicitNewline(t *testing.T) {
	font := fixedFont{advance: 10, lineHeight: 20}
	out := LayoutLabel(LabelSpec{Text: "a\nb", CellHeight: 100}, font)
	if out.TextHeight != 40 {
		t.Fatalf("expected two lines of height 40 total, got %v", out.TextHeight)
	}
}

func TestLayoutLabelCenterAlign(t *testing.T) {
	font := fixedFont{advance: 10, lineHeight: 20}
	out := LayoutLabel(LabelSpec{
		Text: "aa\nbbbb", Align: AlignCenter, CellHeight: 100,
	}, font)
	// First line ("aa", width 20) should be offset from x=0 to center
	// against the wider second line ("bbbb", width 40).
	if out.Chars[0].X != 10 {
		t.Fatalf("expected first line centred at x=10, got %v", out.Chars[0].X)
	}
}

func TestLayoutLabelUnderlineSpan(t *testing.T) {
	font := fixedFont{advance: 10, lineHeight: 20}
	out := LayoutLabel(LabelSpec{
		Text:       "abc",
		CellHeight: 20,
		Spans:      []FormatSpan{{Start: 0, End: 3, Underline: true}},
	}, font)
	if len(out.Lines) != 1 {
		t.Fatalf("expected one underline run, got %d", len(out.Lines))
	}
	if out.Lines[0].W != 30 {
		t.Fatalf("expected underline to span all 3 chars (width 30), got %v", out.Lines[0].W)
	}
}

type stubEmojiAtlas struct{}

func (stubEmojiAtlas) MatchLongest(text []rune, i int) (int, bool) {
	if text[i] == '*' {
		return 1, true
	}
	return 0, false
}

func TestLayoutLabelEmoji(t *testing.T) {
	font := fixedFont{advance: 10, lineHeight: 20}
	out := LayoutLabel(LabelSpec{
		Text: "a*b", CellHeight: 20, EmojiAtlas: stubEmojiAtlas{},
	}, font)
	if len(out.Emoji) != 1 {
		t.Fatalf("expected one emoji box, got %d", len(out.Emoji))
	}
	if len(out.Chars) != 2 {
		t.Fatalf("expected 2 regular glyphs, got %d", len(out.Chars))
	}
}
