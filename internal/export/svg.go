package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/sweep"
)

type Point struct{ X, Y float64 }

// PolylineSVG draws points as a single path scaled to the canvas.
func PolylineSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	// Find bounds
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// SpectrumSVG draws the averaged series of a dataset.
func SpectrumSVG(ds *sweep.Dataset, width, height int) string {
	if ds == nil {
		return ""
	}
	pts := make([]Point, len(ds.Average))
	for i, s := range ds.Average {
		pts[i] = Point{X: s.Frequency, Y: s.Energy}
	}
	return PolylineSVG(pts, width, height, "#ff4040")
}

// NetworkSVG draws springs as lines and nodes as circles colored by charge,
// in world coordinates centred on the origin.
func NetworkSVG(net *network.Network, size int, extent float64) string {
	scale := float64(size) / (2 * extent)
	px := func(x float64) float64 { return (x + extent) * scale }
	py := func(y float64) float64 { return float64(size) - (y+extent)*scale }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke="#808080" stroke-width="1.5">
`, size, size, size, size))

	for k := 0; k < net.NumEdges(); k++ {
		a, b := net.Endpoints(k)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, px(a.X), py(a.Y), px(b.X), py(b.Y)))
	}
	sb.WriteString("</g>\n<g>\n")

	for i := 0; i < net.NumNodes(); i++ {
		n := net.Node(i)
		fill := "#4080ff"
		if n.Positive {
			fill = "#ff6040"
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, px(n.X), py(n.Y), 0.25*scale, fill))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
