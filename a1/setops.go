package a1

import "sheetcore/coord"

// Intersection implements : splits each selection into
// its rectangles, which may overlap (table refs resolved against ctx first, since
// Unbounded is represented as a concrete sentinel, a plain rectangle
// intersection already behaves like a subspace decomposition
// for rays and the All wildcard) and intersects pairwise. It returns
// nil when the selections are on different sheets or the intersection
// is empty.
func Intersection(a, b *Selection, ctx *Context) *Selection {
	if a.SheetId != b.SheetId {
		return nil
	}
	aRects := resolvedRects(a, ctx)
	bRects := resolvedRects(b, ctx)

	seen := make(map[coord.Rect]bool)
	var out []Range
	for _, ra := range aRects {
		for _, rb := range bRects {
			if inter, ok := ra.Intersection(rb); ok {
				if seen[inter] {
					continue
				}
				seen[inter] = true
				out = append(out, RectRange(coord.RefPos{Pos: inter.Min}, coord.RefPos{Pos: inter.Max}))
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	result := &Selection{SheetId: a.SheetId, Ranges: out}
	result.Cursor = out[0].Start.Pos
	return result
}

func resolvedRects(s *Selection, ctx *Context) []coord.Rect {
	rects := make([]coord.Rect, 0, len(s.Ranges))
	for _, r := range s.Ranges {
		if r.IsTable {
			if rect, sheet, ok := ResolveTableRect(r, ctx); ok && sheet == s.SheetId {
				rects = append(rects, rect)
			}
			continue
		}
		rects = append(rects, r.Rect())
	}
	return rects
}
