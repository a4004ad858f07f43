package editor

import (
	"math"
	"sort"
)

// Gesture tuning. Scale has a floor but no ceiling; rotation is
// unbounded and accumulates.
const (
	DragThreshold = 5.0
	ScaleStep     = 0.1
	MinScale      = 0.1
	RotateStep    = 5.0

	MinCanvasSize   = 400.0
	defaultCanvasW  = 800.0
	defaultCanvasH  = 600.0
	defaultFontSize = 14.0
)

// Wheel gesture modifiers.
type Modifier int

const (
	ModNone Modifier = iota
	ModScale
	ModRotate
)

// Canvas is the recomputed canvas geometry: dimensions covering all
// content, and whether the canvas is centered within the viewport.
type Canvas struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Centered bool    `json:"centered"`
}

// drag interaction phases
type dragPhase int

const (
	phaseIdle dragPhase = iota
	phasePressArmed
	phaseDragging
)

// Editor owns the item set and all interaction state. One editor
// instance exists per page, constructed at startup and torn down with
// the page; its methods are driven from a single UI event loop and are
// not safe for concurrent use.
type Editor struct {
	items []*Item
	nextZ int

	trash      Rect
	viewport   Size
	background string
	defaults   FontSettings
	canvas     Canvas

	save func(Layout) // invoked on every structural or stylistic mutation

	phase      dragPhase
	activeID   string
	grabOffset Point
	pressAt    Point

	editingID string
}

// New creates an editor for the given viewport. save is called with the
// full layout snapshot after every mutation; a nil save is allowed for
// ephemeral editors.
func New(viewport Size, save func(Layout)) *Editor {
	e := &Editor{
		viewport:   viewport,
		background: "#ffffff",
		defaults:   FontSettings{Family: "sans-serif", Size: defaultFontSize, Color: "#111111"},
		save:       save,
		nextZ:      1,
	}
	e.recomputeCanvas()
	return e
}

// SetTrash positions the trash drop target in canvas coordinates.
func (e *Editor) SetTrash(r Rect) {
	e.trash = r
}

// SetViewport updates the viewport dimensions and recomputes the canvas.
func (e *Editor) SetViewport(s Size) {
	e.viewport = s
	e.recomputeCanvas()
}

// SetBackground changes the global background color.
func (e *Editor) SetBackground(color string) {
	e.background = color
	e.persist()
}

// SetDefaults changes the default font settings applied to new items.
func (e *Editor) SetDefaults(f FontSettings) {
	e.defaults = f
	e.persist()
}

// Canvas returns the current canvas geometry.
func (e *Editor) Canvas() Canvas {
	return e.canvas
}

// EditingID returns the id of the item with an open edit panel, or "".
func (e *Editor) EditingID() string {
	return e.editingID
}

// Items returns the current item set ordered by z, bottom first.
func (e *Editor) Items() []*Item {
	out := make([]*Item, len(e.items))
	copy(out, e.items)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Z < out[b].Z })
	return out
}

// AddImage places an image item on the canvas. The caption inherits the
// editor's current font defaults.
func (e *Editor) AddImage(source, caption string, base Size, at Point) *Item {
	it := &Item{
		ID:      newItemID(),
		Kind:    KindImage,
		Pos:     at,
		Base:    base,
		Scale:   1,
		Z:       e.bumpZ(),
		Source:  source,
		Caption: caption,
		Font:    e.defaults,
	}
	e.items = append(e.items, it)
	e.persist()
	e.recomputeCanvas()
	return it
}

// AddText places a text block on the canvas with a fresh stable id.
func (e *Editor) AddText(content string, base Size, at Point) *Item {
	it := &Item{
		ID:      newItemID(),
		Kind:    KindText,
		Pos:     at,
		Base:    base,
		Scale:   1,
		Z:       e.bumpZ(),
		Content: content,
		Font:    e.defaults,
	}
	e.items = append(e.items, it)
	e.persist()
	e.recomputeCanvas()
	return it
}

func (e *Editor) bumpZ() int {
	z := e.nextZ
	e.nextZ++
	return z
}

// itemAt returns the topmost item whose box contains p.
func (e *Editor) itemAt(p Point) *Item {
	var hit *Item
	for _, it := range e.items {
		if !it.Box().Contains(p) {
			continue
		}
		if hit == nil || it.Z > hit.Z {
			hit = it
		}
	}
	return hit
}

func (e *Editor) find(id string) *Item {
	for _, it := range e.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// PointerDown arms the topmost item under p for a potential drag. Only
// one item can be armed or dragging at a time; a press while another
// interaction is in flight is ignored.
func (e *Editor) PointerDown(p Point) bool {
	if e.phase != phaseIdle {
		return false
	}
	it := e.itemAt(p)
	if it == nil {
		return false
	}
	e.phase = phasePressArmed
	e.activeID = it.ID
	e.pressAt = p
	e.grabOffset = Point{X: p.X - it.Pos.X, Y: p.Y - it.Pos.Y}
	it.Z = e.bumpZ() // raise to front for the interaction
	return true
}

// PointerMove advances an armed press into a drag once movement exceeds
// the threshold, then tracks the pointer minus the initial grab offset.
// Below the threshold the item's committed position is untouched.
func (e *Editor) PointerMove(p Point) {
	switch e.phase {
	case phasePressArmed:
		if math.Abs(p.X-e.pressAt.X) <= DragThreshold && math.Abs(p.Y-e.pressAt.Y) <= DragThreshold {
			return
		}
		e.phase = phaseDragging
		fallthrough
	case phaseDragging:
		if it := e.find(e.activeID); it != nil {
			it.Pos = Point{X: p.X - e.grabOffset.X, Y: p.Y - e.grabOffset.Y}
		}
	}
}

// PointerUp ends the interaction. A drag released over the trash target
// destroys the item; any other drag commits the new position. A press
// that never crossed the threshold is a click and changes nothing.
// Structural outcomes trigger a snapshot save and a canvas recompute.
func (e *Editor) PointerUp(p Point) {
	phase := e.phase
	id := e.activeID
	e.phase = phaseIdle
	e.activeID = ""

	if phase != phaseDragging {
		return
	}
	if e.trash.Contains(p) {
		e.remove(id)
	}
	e.persist()
	e.recomputeCanvas()
}

func (e *Editor) remove(id string) {
	for i, it := range e.items {
		if it.ID == id {
			e.items = append(e.items[:i], e.items[i+1:]...)
			if e.editingID == id {
				e.editingID = ""
			}
			return
		}
	}
}

// Wheel applies a scale or rotate gesture to the item under p,
// independent of drag state. Scale is clamped to MinScale with no upper
// bound; rotation accumulates without normalisation and is exactly
// invertible under repeated application.
func (e *Editor) Wheel(p Point, deltaY float64, mod Modifier) {
	it := e.itemAt(p)
	if it == nil || mod == ModNone {
		return
	}
	switch mod {
	case ModScale:
		step := ScaleStep
		if deltaY > 0 {
			step = -ScaleStep
		}
		it.Scale = math.Max(MinScale, it.Scale+step)
	case ModRotate:
		step := RotateStep
		if deltaY > 0 {
			step = -RotateStep
		}
		it.Rotation += step
	}
	e.persist()
	e.recomputeCanvas()
}

// Rotate applies an arbitrary rotation delta to an item, used by the
// edit panel. Rotation by d then -d restores the original angle.
func (e *Editor) Rotate(id string, delta float64) {
	if it := e.find(id); it != nil {
		it.Rotation += delta
		e.persist()
	}
}

// DoubleClick opens the field-editing panel for the item under p. Only
// one editor is active at a time; opening a new one implicitly closes
// the previous one without committing partial edits.
func (e *Editor) DoubleClick(p Point) (string, bool) {
	if e.phase == phaseDragging {
		return "", false
	}
	it := e.itemAt(p)
	if it == nil {
		e.editingID = ""
		return "", false
	}
	e.editingID = it.ID
	return it.ID, true
}

// CancelEdit closes the edit panel without applying anything.
func (e *Editor) CancelEdit() {
	e.editingID = ""
}

// CommitImageEdit applies caption and styling edits to the image item
// currently being edited, then closes the panel.
func (e *Editor) CommitImageEdit(caption string, font FontSettings, mirrored bool) bool {
	it := e.find(e.editingID)
	if it == nil || it.Kind != KindImage {
		return false
	}
	it.Caption = caption
	it.Font = font
	it.Mirrored = mirrored
	e.editingID = ""
	e.persist()
	return true
}

// CommitTextEdit applies content and styling edits to the text item
// currently being edited, then closes the panel.
func (e *Editor) CommitTextEdit(content string, font FontSettings) bool {
	it := e.find(e.editingID)
	if it == nil || it.Kind != KindText {
		return false
	}
	it.Content = content
	it.Font = font
	e.editingID = ""
	e.persist()
	return true
}

// recomputeCanvas rebuilds the canvas geometry from scratch: the
// bounding box over all scaled items, floored at MinCanvasSize, centered
// only when the content fits the viewport in both axes. It is always a
// full recompute, never an incremental patch, to avoid drift.
func (e *Editor) recomputeCanvas() {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := 0.0, 0.0
	for _, it := range e.items {
		box := it.Box()
		minX = math.Min(minX, box.Min.X)
		minY = math.Min(minY, box.Min.Y)
		maxX = math.Max(maxX, box.Max.X)
		maxY = math.Max(maxY, box.Max.Y)
	}
	if math.IsInf(minX, 1) {
		minX, minY = 0, 0
		maxX, maxY = defaultCanvasW, defaultCanvasH
	}
	contentW := maxX - minX
	contentH := maxY - minY

	e.canvas = Canvas{
		Width:    math.Max(contentW, MinCanvasSize),
		Height:   math.Max(contentH, MinCanvasSize),
		Centered: contentW < e.viewport.W && contentH < e.viewport.H,
	}
}

// Snapshot serialises the full item set plus global style defaults.
func (e *Editor) Snapshot() Layout {
	l := Layout{
		Images:          []ImagePlacement{},
		Texts:           []TextPlacement{},
		BackgroundColor: e.background,
		FontSettings:    e.defaults,
	}
	for _, it := range e.Items() {
		switch it.Kind {
		case KindImage:
			l.Images = append(l.Images, ImagePlacement{
				Name:       it.Caption,
				Img:        it.Source,
				Left:       it.Pos.X,
				Top:        it.Pos.Y,
				Scale:      it.Scale,
				Rotate:     it.Rotation,
				FontFamily: it.Font.Family,
				FontSize:   it.Font.Size,
				Color:      it.Font.Color,
				Flipped:    it.Mirrored,
			})
		case KindText:
			l.Texts = append(l.Texts, TextPlacement{
				Content:    it.Content,
				Left:       it.Pos.X,
				Top:        it.Pos.Y,
				Scale:      it.Scale,
				Rotate:     it.Rotation,
				FontFamily: it.Font.Family,
				FontSize:   it.Font.Size,
				Color:      it.Font.Color,
				TextID:     it.ID,
			})
		}
	}
	return l
}

// Restore rebuilds the item set from a persisted snapshot. It does not
// trigger a save.
func (e *Editor) Restore(l Layout) {
	e.items = nil
	e.nextZ = 1
	e.background = l.BackgroundColor
	if e.background == "" {
		e.background = "#ffffff"
	}
	if l.FontSettings.Family != "" {
		e.defaults = l.FontSettings
	}
	// Persisted layouts carry no intrinsic dimensions (the browser
	// supplies them when the image loads), so restored items start with
	// a nominal box until the UI reports real sizes.
	nominal := Size{W: 100, H: 100}
	for _, im := range l.Images {
		e.items = append(e.items, &Item{
			ID:       newItemID(),
			Kind:     KindImage,
			Pos:      Point{X: im.Left, Y: im.Top},
			Base:     nominal,
			Scale:    nonZero(im.Scale, 1),
			Rotation: im.Rotate,
			Z:        e.bumpZ(),
			Source:   im.Img,
			Caption:  im.Name,
			Font:     FontSettings{Family: im.FontFamily, Size: im.FontSize, Color: im.Color},
			Mirrored: im.Flipped,
		})
	}
	for _, tx := range l.Texts {
		id := tx.TextID
		if id == "" {
			id = newItemID()
		}
		e.items = append(e.items, &Item{
			ID:       id,
			Kind:     KindText,
			Pos:      Point{X: tx.Left, Y: tx.Top},
			Base:     nominal,
			Scale:    nonZero(tx.Scale, 1),
			Rotation: tx.Rotate,
			Z:        e.bumpZ(),
			Content:  tx.Content,
			Font:     FontSettings{Family: tx.FontFamily, Size: tx.FontSize, Color: tx.Color},
		})
	}
	e.recomputeCanvas()
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func (e *Editor) persist() {
	if e.save != nil {
		e.save(e.Snapshot())
	}
}
