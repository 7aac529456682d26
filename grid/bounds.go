package grid

import "sheetcore/coord"

// RecalculateBounds recomputes dataBounds (union of column-value
// rectangles, data-table rectangles, validation-special rectangles,
// validation-warning positions) and formatBounds, returning whether
// either changed.
func (s *Sheet) RecalculateBounds() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldData, oldFormat := s.dataBounds, s.formatBounds
	oldValid := s.boundsValid

	var data coord.Rect
	first := true
	grow := func(r coord.Rect) {
		if first {
			data = r
			first = false
			return
		}
		data = data.Union(r)
	}

	for col, rows := range s.columns {
		for row := range rows {
			grow(coord.Rect{Min: coord.Pos{X: col, Y: row}, Max: coord.Pos{X: col, Y: row}})
		}
	}
	for pos, dt := range s.tables {
		grow(dt.OutputRect(pos, true))
	}
	for _, v := range s.validations {
		grow(v.Rect)
	}

	var format coord.Rect
	firstFmt := true
	for _, runs := range s.formats {
		for _, run := range runs {
			r := coord.Rect{Min: coord.Pos{X: run.Start, Y: 1}, Max: coord.Pos{X: run.End, Y: 1}}
			if firstFmt {
				format = r
				firstFmt = false
			} else {
				format = format.Union(r)
			}
		}
	}

	s.dataBounds = data
	s.formatBounds = format
	s.boundsValid = true

	return !oldValid || oldData != data || oldFormat != format
}

// DataBounds returns the cached data bounds, recomputing first if stale.
func (s *Sheet) DataBounds() coord.Rect {
	s.mu.RLock()
	valid := s.boundsValid
	bounds := s.dataBounds
	s.mu.RUnlock()
	if valid {
		return bounds
	}
	s.RecalculateBounds()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataBounds
}

// UsedBounds returns DataBounds union FormatBounds, the rectangle
// LargestRectFinite clamps unbounded selections against.
func (s *Sheet) UsedBounds() coord.Rect {
	s.mu.RLock()
	valid := s.boundsValid
	data, format := s.dataBounds, s.formatBounds
	s.mu.RUnlock()
	if !valid {
		s.RecalculateBounds()
		s.mu.RLock()
		data, format = s.dataBounds, s.formatBounds
		s.mu.RUnlock()
	}
	if data == (coord.Rect{}) {
		return format
	}
	if format == (coord.Rect{}) {
		return data
	}
	return data.Union(format)
}
