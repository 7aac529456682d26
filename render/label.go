package render

import (
	"strings"
	"unicode/utf8"
)

// Align and VerticalAlign mirror the small set of cell alignment modes
// the layout pass cares about.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type VerticalAlign int

const (
	VAlignTop VerticalAlign = iota
	VAlignMiddle
	VAlignBottom
)

// Wrap selects whether text breaks at max_width or overflows the cell.
type Wrap int

const (
	NoWrap Wrap = iota
	WordWrap
)

// UnderlineOffsetRatio and StrikeThroughOffsetRatio position decoration
// lines as a fraction of the line height below the line's top edge.
const (
	UnderlineOffsetRatio     = 52.0 / 64.0
	StrikeThroughOffsetRatio = 32.0 / 64.0
)

// FontMetrics abstracts the glyph measurements a real MSDF font atlas
// would supply. Tests and the CPU layout pass only need advance widths
// and a line height; texture pages are assigned by Pipeline itself.
type FontMetrics interface {
	Advance(r rune) float64
	LineHeight() float64
	Kerning(prev, next rune) float64
}

// CharData is one positioned glyph, ready to be appended to a texture
// page's vertex/index buffers.
type CharData struct {
	Rune    rune
	X, Y    float64 // baseline-relative position within the hash
	W, H    float64
	Page    int // font_index*16 + local_page, per the global page scheme
	Color   uint32
	Emoji   bool
}

// HorizontalLine is one axis-aligned underline/strikethrough run.
type HorizontalLine struct {
	X, Y, W float64
	Color   uint32
}

// FormatSpan overrides style for [Start,End) of a label's runes.
type FormatSpan struct {
	Start, End               int
	Bold, Italic             bool
	Underline, StrikeThrough bool
	Color                    uint32
	Link                     bool
}

// LabelSpec is the input to LayoutLabel: one cell's text plus the
// formatting the render pipeline needs to know about.
type LabelSpec struct {
	Text          string
	Align         Align
	VerticalAlign VerticalAlign
	Wrap          Wrap
	MaxWidth      float64
	CellHeight    float64
	BaseColor     uint32
	Spans         []FormatSpan
	EmojiAtlas    EmojiAtlas
}

// EmojiAtlas reports the longest emoji run starting at a rune offset,
// or ok=false if text[i] cannot begin one.
type EmojiAtlas interface {
	MatchLongest(text []rune, i int) (runeLen int, ok bool)
}

// LabelLayout is LayoutLabel's output: positioned characters, emoji
// sprite boxes, and decoration rectangles, plus the measurements the
// autosize cache needs.
type LabelLayout struct {
	Chars           []CharData
	Emoji           []CharData
	Lines           []HorizontalLine
	UnwrappedWidth  float64
	TextHeight      float64
}

// LayoutLabel runs the per-label build described for the render
// pipeline: split into characters, greedily match emoji runs, word-wrap
// if requested, align each line, and collect underline/strikethrough
// runs per contiguous same-style stretch.
func LayoutLabel(spec LabelSpec, font FontMetrics) LabelLayout {
	runes := []rune(spec.Text)
	lines := splitLines(runes, spec, font)

	var out LabelLayout
	lineHeight := font.LineHeight()
	out.TextHeight = lineHeight * float64(len(lines))

	maxLineWidth := 0.0
	for _, ln := range lines {
		if ln.width > maxLineWidth {
			maxLineWidth = ln.width
		}
	}
	out.UnwrappedWidth = unwrappedWidth(runes, font)

	vOffset := verticalOffset(spec, lineHeight*float64(len(lines)))
	for li, ln := range lines {
		hOffset := horizontalOffset(spec, maxLineWidth, ln.width)
		x := hOffset
		runStartX := x
		y := vOffset + float64(li)*lineHeight
		for i := 0; i < len(ln.runes); i++ {
			r := ln.runes[i]
			span := spanAt(spec.Spans, ln.offset+i)
			color := spec.BaseColor
			if span != nil {
				color = span.Color
			}

			if spec.EmojiAtlas != nil {
				if n, ok := spec.EmojiAtlas.MatchLongest(ln.runes, i); ok {
					box := lineHeight
					out.Emoji = append(out.Emoji, CharData{
						Rune: r, X: x, Y: y, W: box, H: box, Emoji: true, Color: color,
					})
					x += box
					i += n - 1
					continue
				}
			}

			adv := font.Advance(r)
			if i > 0 {
				adv += font.Kerning(ln.runes[i-1], r)
			}
			out.Chars = append(out.Chars, CharData{
				Rune: r, X: x, Y: y, W: adv, H: lineHeight, Color: color,
			})
			x += adv

			sameStyleAsNext := i+1 < len(ln.runes) && sameDecoration(spanAt(spec.Spans, ln.offset+i), spanAt(spec.Spans, ln.offset+i+1))
			if !sameStyleAsNext {
				if span != nil && (span.Underline || span.Link) {
					out.Lines = append(out.Lines, decorationLine(runStartX, y, x-runStartX, lineHeight, UnderlineOffsetRatio, color))
				}
				if span != nil && span.StrikeThrough {
					out.Lines = append(out.Lines, decorationLine(runStartX, y, x-runStartX, lineHeight, StrikeThroughOffsetRatio, color))
				}
				runStartX = x
			}
		}
	}
	return out
}

func decorationLine(x0, y, w, lineHeight, ratio float64, color uint32) HorizontalLine {
	return HorizontalLine{X: x0, Y: y + lineHeight*ratio, W: w, Color: color}
}

func spanAt(spans []FormatSpan, i int) *FormatSpan {
	for idx := range spans {
		s := &spans[idx]
		if i >= s.Start && i < s.End {
			return s
		}
	}
	return nil
}

func sameDecoration(a, b *FormatSpan) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Underline == b.Underline && a.StrikeThrough == b.StrikeThrough && a.Link == b.Link && a.Color == b.Color
}

type textLine struct {
	runes  []rune
	offset int
	width  float64
}

// splitLines breaks on \n/\r always, and additionally at the last
// space before max_width when Wrap is WordWrap.
func splitLines(runes []rune, spec LabelSpec, font FontMetrics) []textLine {
	var lines []textLine
	start := 0
	for i := 0; i <= len(runes); i++ {
		if i == len(runes) || runes[i] == '\n' || runes[i] == '\r' {
			lines = append(lines, wrapLine(runes[start:i], start, spec, font)...)
			if i < len(runes) && runes[i] == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if len(lines) == 0 {
		lines = append(lines, textLine{})
	}
	return lines
}

func wrapLine(runes []rune, offset int, spec LabelSpec, font FontMetrics) []textLine {
	if spec.Wrap != WordWrap || spec.MaxWidth <= 0 {
		return []textLine{{runes: runes, offset: offset, width: measure(runes, font)}}
	}
	var out []textLine
	lineStart, width, lastSpace := 0, 0.0, -1
	for i, r := range runes {
		adv := font.Advance(r)
		if width+adv > spec.MaxWidth && lineStart < i {
			breakAt := i
			if lastSpace > lineStart {
				breakAt = lastSpace + 1
			}
			seg := runes[lineStart:breakAt]
			out = append(out, textLine{runes: seg, offset: offset + lineStart, width: measure(seg, font)})
			lineStart = breakAt
			width = measure(runes[lineStart:i+1], font)
			lastSpace = -1
			continue
		}
		width += adv
		if r == ' ' {
			lastSpace = i
		}
	}
	seg := runes[lineStart:]
	out = append(out, textLine{runes: seg, offset: offset + lineStart, width: measure(seg, font)})
	return out
}

func measure(runes []rune, font FontMetrics) float64 {
	var w float64
	for i, r := range runes {
		w += font.Advance(r)
		if i > 0 {
			w += font.Kerning(runes[i-1], r)
		}
	}
	return w
}

func unwrappedWidth(runes []rune, font FontMetrics) float64 {
	maxW, cur := 0.0, 0.0
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			if cur > maxW {
				maxW = cur
			}
			cur = 0
			continue
		}
		cur += font.Advance(r)
		if i > 0 {
			cur += font.Kerning(runes[i-1], r)
		}
	}
	if cur > maxW {
		maxW = cur
	}
	return maxW
}

func horizontalOffset(spec LabelSpec, maxLineWidth, lineWidth float64) float64 {
	switch spec.Align {
	case AlignCenter:
		return (maxLineWidth - lineWidth) / 2
	case AlignRight:
		return maxLineWidth - lineWidth
	default:
		return 0
	}
}

// verticalOffset implements the (vertical_align, available_space)
// placement, with a small-cell fallback that centres when the cell is
// barely taller than the text block.
func verticalOffset(spec LabelSpec, textBlockHeight float64) float64 {
	available := spec.CellHeight - textBlockHeight
	const smallCellSlack = 4.0
	if available < smallCellSlack {
		return available / 2
	}
	switch spec.VerticalAlign {
	case VAlignMiddle:
		return available / 2
	case VAlignBottom:
		return available
	default:
		return 0
	}
}

// RuneCount is a small helper so callers that only need a text's rune
// length don't have to import unicode/utf8 themselves.
func RuneCount(s string) int { return utf8.RuneCountInString(s) }

// TrimEOL strips a single trailing newline, matching how a cell's
// display text is measured without counting its own line terminator.
func TrimEOL(s string) string { return strings.TrimRight(s, "\n\r") }
