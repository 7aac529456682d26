package render

import (
	"context"
	"log"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"sheetcore/coord"
	"sheetcore/grid"
)

// MaxTexturePages bounds the global font-page id scheme
// (font_index*16 + local_page) a hash's glyphs are batched against.
const MaxTexturePages = 64

// SpriteScaleThreshold is the viewport scale below which a hash draws
// its pre-baked sprite instead of re-rasterising MSDF glyphs ("War and
// Peace" technique: zoomed far enough out that per-glyph detail is
// imperceptible anyway).
const SpriteScaleThreshold = 0.2

// TexturePage is one hash's batched draw data for a single font page:
// every glyph sharing that page. The underline/strikethrough
// rectangles are kept separately in HashBuild.Lines, since they are
// solid-colour triangles, not textured glyphs.
type TexturePage struct {
	Page  int
	Chars []CharData
}

// HashBuild is the cached, rebuildable content of one spatial hash.
type HashBuild struct {
	Coord HashCoord

	Pages []TexturePage
	Emoji []CharData
	Lines []HorizontalLine

	// ColumnMaxWidth/RowMaxHeight are the autosize cache: the widest
	// unwrapped label and tallest label this hash contributes per
	// column/row, for the outer column/row autosize driver to read.
	ColumnMaxWidth map[int64]float64
	RowMaxHeight   map[int64]float64

	SpriteValid bool
}

// Pipeline owns the per-sheet hash cache and the dirty-hash set a
// transaction leaves behind. It never mutates grid state; it only
// reads a snapshot of it after each transaction, matching the
// single-writer/many-reader split the engine and renderer maintain.
type Pipeline struct {
	Font   FontMetrics
	Logger *log.Logger

	mu     sync.Mutex
	hashes map[HashCoord]*HashBuild
	dirty  map[HashCoord]struct{}
}

// NewPipeline returns a pipeline with an empty cache, laying out with font.
func NewPipeline(font FontMetrics) *Pipeline {
	return &Pipeline{
		Font:   font,
		Logger: log.New(os.Stderr, "render: ", log.LstdFlags),
		hashes: make(map[HashCoord]*HashBuild),
		dirty:  make(map[HashCoord]struct{}),
	}
}

// MarkDirty records that hash h's label set, offsets, or layout changed
// and must be rebuilt before its next use. Called by the transaction
// engine (or any other grid mutator) with the hashes a change touched.
func (p *Pipeline) MarkDirty(h HashCoord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty[h] = struct{}{}
}

// MarkDirtyRect marks every hash overlapping rect dirty, for a
// structural edit or bulk paste that touches more than one cell.
func (p *Pipeline) MarkDirtyRect(rect coord.Rect) {
	min := HashOf(rect.Min)
	max := HashOf(rect.Max)
	p.mu.Lock()
	defer p.mu.Unlock()
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			p.dirty[HashCoord{X: x, Y: y}] = struct{}{}
		}
	}
}

// snapshotDirty drains the dirty set under lock, returning the hashes
// to rebuild. Matches how the engine snapshots an a1.Context at
// operation boundaries rather than holding a lock across the rebuild.
func (p *Pipeline) snapshotDirty() []HashCoord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]HashCoord, 0, len(p.dirty))
	for h := range p.dirty {
		out = append(out, h)
	}
	p.dirty = make(map[HashCoord]struct{})
	return out
}

// RebuildDirty rebuilds every dirty hash, fanning the (independent,
// once snapshotted) per-hash work out across an errgroup bounded by
// GOMAXPROCS, and returns the coordinates it rebuilt.
func (p *Pipeline) RebuildDirty(ctx context.Context, sh *grid.Sheet) ([]HashCoord, error) {
	dirty := p.snapshotDirty()
	if len(dirty) == 0 {
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	built := make([]*HashBuild, len(dirty))
	for i, h := range dirty {
		i, h := i, h
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			built[i] = p.buildHash(h, sh)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if p.Logger != nil {
			p.Logger.Printf("rebuild aborted: %v", err)
		}
		// Put back whatever didn't finish so the next pass retries it.
		p.mu.Lock()
		for i, b := range built {
			if b == nil {
				p.dirty[dirty[i]] = struct{}{}
			}
		}
		p.mu.Unlock()
		return nil, err
	}

	p.mu.Lock()
	for i, b := range built {
		p.hashes[dirty[i]] = b
	}
	p.mu.Unlock()
	return dirty, nil
}

// Hash returns the most recent cached build for h, if h has ever been
// built. Marking h dirty does not evict that build, so it may predate
// the latest MarkDirty until RebuildDirty runs.
func (p *Pipeline) Hash(h HashCoord) (*HashBuild, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.hashes[h]
	return b, ok
}

// ConfirmSprite marks h's sprite as freshly baked. The renderer calls
// this after it finishes the "War and Peace" render-to-texture pass;
// RebuildDirty always starts a fresh build with SpriteValid=false since
// a rebuilt label set invalidates whatever sprite covered the old one.
func (p *Pipeline) ConfirmSprite(h HashCoord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.hashes[h]; ok {
		b.SpriteValid = true
	}
}

// buildHash lays out every non-empty label inside h's cell-space
// rectangle and batches the resulting glyphs by texture page.
func (p *Pipeline) buildHash(h HashCoord, sh *grid.Sheet) *HashBuild {
	rect := h.Rect()
	build := &HashBuild{
		Coord:          h,
		ColumnMaxWidth: make(map[int64]float64),
		RowMaxHeight:   make(map[int64]float64),
	}
	pages := make(map[int]*TexturePage)

	originX := sh.Offsets.ColumnPosition(rect.Min.X)
	originY := sh.Offsets.RowPosition(rect.Min.Y)

	for y := rect.Min.Y; y <= rect.Max.Y; y++ {
		for x := rect.Min.X; x <= rect.Max.X; x++ {
			pos := coord.Pos{X: x, Y: y}
			cv := sh.EffectiveCellValue(pos)
			if cv.IsBlank() {
				continue
			}
			text := TrimEOL(cv.DisplayString())
			if text == "" {
				continue
			}
			spec := LabelSpec{
				Text:       text,
				MaxWidth:   sh.Offsets.ColumnWidth(x),
				CellHeight: sh.Offsets.RowHeight(y),
				BaseColor:  0xFF000000,
			}
			layout := LayoutLabel(spec, p.Font)

			cellX := sh.Offsets.ColumnPosition(x) - originX
			cellY := sh.Offsets.RowPosition(y) - originY

			for _, c := range layout.Chars {
				c.X += cellX
				c.Y += cellY
				page := pages[c.Page]
				if page == nil {
					page = &TexturePage{Page: c.Page}
					pages[c.Page] = page
				}
				page.Chars = append(page.Chars, c)
			}
			for _, c := range layout.Emoji {
				c.X += cellX
				c.Y += cellY
				build.Emoji = append(build.Emoji, c)
			}
			for _, ln := range layout.Lines {
				ln.X += cellX
				ln.Y += cellY
				build.Lines = append(build.Lines, ln)
			}

			if layout.UnwrappedWidth > build.ColumnMaxWidth[x] {
				build.ColumnMaxWidth[x] = layout.UnwrappedWidth
			}
			if layout.TextHeight > build.RowMaxHeight[y] {
				build.RowMaxHeight[y] = layout.TextHeight
			}
		}
	}

	build.Pages = make([]TexturePage, 0, len(pages))
	for _, pg := range pages {
		build.Pages = append(build.Pages, *pg)
	}
	return build
}

// ShouldUseSprite reports whether the renderer should draw hash's
// pre-baked sprite instead of re-rasterising its MSDF glyphs.
func ShouldUseSprite(scale float64) bool {
	return scale < SpriteScaleThreshold
}
