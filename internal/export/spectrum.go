package export

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/netspec/internal/sweep"
)

var ErrNoData = errors.New("export: dataset has no samples")

var (
	passColor    = color.RGBA{R: 150, G: 150, B: 170, A: 255}
	averageColor = color.RGBA{R: 200, G: 40, B: 40, A: 255}
)

// ChartSize is the rendered chart size in inches.
type ChartSize struct {
	Width, Height float64
	DPI           int
}

func DefaultChartSize() ChartSize {
	return ChartSize{Width: 14, Height: 8, DPI: 100}
}

func xys(samples []sweep.Sample) plotter.XYs {
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.Frequency
		pts[i].Y = s.Energy
	}
	return pts
}

// SpectrumPlot builds the energy-vs-frequency chart: one thin line per pass
// and the averaged series on top.
func SpectrumPlot(ds *sweep.Dataset) (*plot.Plot, error) {
	if ds == nil || len(ds.Average) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: mean max spring energy", ds.Meta.NetworkName)
	p.X.Label.Text = "frequency (Hz)"
	p.Y.Label.Text = "energy"
	p.Title.Padding = vg.Points(8)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.Add(plotter.NewGrid())

	for _, pass := range ds.Passes {
		if len(pass.Samples) < 2 {
			continue
		}
		line, err := plotter.NewLine(xys(pass.Samples))
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", pass.Index, err)
		}
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Color = passColor
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("pass %d", pass.Index), line)
	}

	avg, err := plotter.NewLine(xys(ds.Average))
	if err != nil {
		return nil, fmt.Errorf("average: %w", err)
	}
	avg.LineStyle.Width = vg.Points(2.5)
	avg.LineStyle.Color = averageColor
	p.Add(avg)
	p.Legend.Add("average", avg)
	p.Legend.Top = true

	return p, nil
}

// SpectrumPNG renders the spectrum chart as PNG into w.
func SpectrumPNG(w io.Writer, ds *sweep.Dataset, size ChartSize) error {
	p, err := SpectrumPlot(ds)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch),
		vgimg.UseDPI(size.DPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return bw.Flush()
}
