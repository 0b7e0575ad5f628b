package viz

import (
	"strings"
)

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// offset from U+2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells addressed in sub-pixels. A canvas of
// Width x Height cells has (Width*2) x (Height*4) sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots is the canvas size in sub-pixels.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

// Set lights the sub-pixel (x, y). Points outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawBlock fills a square of side 2r+1 centred on (x, y).
func (c *Canvas) DrawBlock(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

// DrawFrame outlines the canvas border.
func (c *Canvas) DrawFrame() {
	w, h := c.Dots()
	c.DrawLine(0, 0, w-1, 0)
	c.DrawLine(w-1, 0, w-1, h-1)
	c.DrawLine(w-1, h-1, 0, h-1)
	c.DrawLine(0, h-1, 0, 0)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Projection maps world coordinates in the square [-Extent, Extent] onto a
// canvas, with y pointing up.
type Projection struct {
	Extent float64
	w, h   int
}

func NewProjection(c *Canvas, extent float64) Projection {
	w, h := c.Dots()
	return Projection{Extent: extent, w: w, h: h}
}

func (p Projection) Point(x, y float64) (int, int) {
	px := (x + p.Extent) / (2 * p.Extent) * float64(p.w-1)
	py := (p.Extent - y) / (2 * p.Extent) * float64(p.h-1)
	return int(px + 0.5), int(py + 0.5)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
