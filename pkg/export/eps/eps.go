// Package eps writes Encapsulated PostScript drawings of 2D colonies.
package eps

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// Point is a position on the page.
type Point struct{ X, Y float64 }

// Shape is anything a Document can draw. The set of shapes is closed.
type Shape interface {
	transform(translate, scale Point)
	extend(b *bounds)
	write(w io.Writer)
}

// Points draws filled discs. The radius is in page units and is not
// affected by Transform.
type Points struct {
	At     []Point
	Radius float64
}

// Lines draws independent straight segments.
type Lines [][2]Point

// SetRGB switches the current color for subsequent shapes.
type SetRGB struct{ R, G, B float64 }

// Document is an ordered list of shapes.
type Document struct {
	shapes []Shape
}

// New returns an empty document.
func New() *Document { return &Document{} }

// Add appends shapes to the document. Shapes are drawn in order.
func (d *Document) Add(shapes ...Shape) {
	d.shapes = append(d.shapes, shapes...)
}

// Transform moves every shape by translate and then multiplies the result
// by scale, component-wise.
func (d *Document) Transform(translate, scale Point) {
	for _, s := range d.shapes {
		s.transform(translate, scale)
	}
}

// WriteEPS writes the document with a bounding box fitted around its content
// and padded by padX and padY.
func (d *Document) WriteEPS(w io.Writer, padX, padY float64) error {
	b := emptyBounds()
	for _, s := range d.shapes {
		s.extend(&b)
	}
	if b.empty() {
		b = bounds{}
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("%!PS-Adobe-3.0 EPSF-3.0\n")
	fmt.Fprintf(bw, "%%%%BoundingBox: %d %d %d %d\n",
		int(math.Floor(b.minX-padX)), int(math.Floor(b.minY-padY)),
		int(math.Ceil(b.maxX+padX)), int(math.Ceil(b.maxY+padY)))
	bw.WriteString("%%EndComments\n")
	bw.WriteString("0 setlinewidth\n")
	for _, s := range d.shapes {
		s.write(bw)
	}
	bw.WriteString("showpage\n")
	bw.WriteString("%%EOF\n")
	return bw.Flush()
}

type bounds struct{ minX, minY, maxX, maxY float64 }

func emptyBounds() bounds {
	return bounds{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
}

func (b bounds) empty() bool { return b.minX > b.maxX }

func (b *bounds) add(p Point, r float64) {
	b.minX = math.Min(b.minX, p.X-r)
	b.minY = math.Min(b.minY, p.Y-r)
	b.maxX = math.Max(b.maxX, p.X+r)
	b.maxY = math.Max(b.maxY, p.Y+r)
}

func (p Point) moved(translate, scale Point) Point {
	return Point{X: (p.X + translate.X) * scale.X, Y: (p.Y + translate.Y) * scale.Y}
}

func (p *Points) transform(translate, scale Point) {
	for i := range p.At {
		p.At[i] = p.At[i].moved(translate, scale)
	}
}

func (p *Points) extend(b *bounds) {
	for _, q := range p.At {
		b.add(q, p.Radius)
	}
}

func (p *Points) write(w io.Writer) {
	for _, q := range p.At {
		fmt.Fprintf(w, "newpath %.3f %.3f %.3f 0 360 arc fill\n", q.X, q.Y, p.Radius)
	}
}

func (l Lines) transform(translate, scale Point) {
	for i := range l {
		l[i][0] = l[i][0].moved(translate, scale)
		l[i][1] = l[i][1].moved(translate, scale)
	}
}

func (l Lines) extend(b *bounds) {
	for _, s := range l {
		b.add(s[0], 0)
		b.add(s[1], 0)
	}
}

func (l Lines) write(w io.Writer) {
	for _, s := range l {
		fmt.Fprintf(w, "newpath %.3f %.3f moveto %.3f %.3f lineto stroke\n", s[0].X, s[0].Y, s[1].X, s[1].Y)
	}
}

func (SetRGB) transform(Point, Point) {}
func (SetRGB) extend(*bounds)         {}

func (c SetRGB) write(w io.Writer) {
	fmt.Fprintf(w, "%.3f %.3f %.3f setrgbcolor\n", c.R, c.G, c.B)
}
