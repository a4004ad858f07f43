// Package editor implements the freeform canvas editor as an explicit
// state machine: items are dragged with a pixel threshold, scaled and
// rotated with modifier-qualified wheel gestures, deleted by dropping on
// the trash target, and serialised wholesale into a layout snapshot on
// every mutation.
package editor

import "github.com/google/uuid"

// Item kinds.
const (
	KindImage = "image"
	KindText  = "text"
)

// Point is a position in canvas-local coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an unscaled width/height in pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Contains reports whether p lies inside r (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// FontSettings is the styling applied to a caption or text block.
type FontSettings struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Color  string  `json:"color"`
}

// Item is one placed canvas element, an image or a text block.
type Item struct {
	ID       string
	Kind     string
	Pos      Point
	Base     Size // unscaled dimensions
	Scale    float64
	Rotation float64 // degrees, unbounded, accumulates
	Z        int

	// Image fields.
	Source   string
	Caption  string
	Font     FontSettings // caption font for images, text font for texts
	Mirrored bool

	// Text fields.
	Content string
}

// Box returns the item's scaled bounding box.
func (it *Item) Box() Rect {
	return Rect{
		Min: it.Pos,
		Max: Point{X: it.Pos.X + it.Base.W*it.Scale, Y: it.Pos.Y + it.Base.H*it.Scale},
	}
}

func newItemID() string {
	return uuid.NewString()
}

// ImagePlacement is the serialised form of one placed image.
type ImagePlacement struct {
	Name       string  `json:"name"`
	Img        string  `json:"img"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Scale      float64 `json:"scale"`
	Rotate     float64 `json:"rotate"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	Color      string  `json:"color"`
	Flipped    bool    `json:"flipped,omitempty"`
}

// TextPlacement is the serialised form of one placed text block.
type TextPlacement struct {
	Content    string  `json:"content"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Scale      float64 `json:"scale"`
	Rotate     float64 `json:"rotate"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	Color      string  `json:"color"`
	TextID     string  `json:"textId"`
}

// Layout is the full snapshot persisted on every mutation: all placed
// items plus the global background and font defaults. It is overwritten
// wholesale, last-write-wins.
type Layout struct {
	Images          []ImagePlacement `json:"images"`
	Texts           []TextPlacement  `json:"texts"`
	BackgroundColor string           `json:"backgroundColor"`
	FontSettings    FontSettings     `json:"fontSettings"`
}
