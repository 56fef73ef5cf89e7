package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/nconklindev/stockboard/internal/types"
)

// PNGRenderer writes each chart to <dir>/<targetID>.png.
type PNGRenderer struct {
	dir    string
	width  vg.Length
	height vg.Length
}

func NewPNGRenderer(dir string) (*PNGRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}
	return &PNGRenderer{dir: dir, width: 8 * vg.Inch, height: 5 * vg.Inch}, nil
}

// Path is the file a target id renders to.
func (r *PNGRenderer) Path(targetID string) string {
	return filepath.Join(r.dir, targetID+".png")
}

// Render draws the chart and atomically replaces any previous file for the target.
func (r *PNGRenderer) Render(targetID string, kind types.ChartKind, s types.Series) error {
	p, err := buildPlot(targetID, kind, s)
	if err != nil {
		return fmt.Errorf("render %s: %w", targetID, err)
	}

	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", targetID, err)
	}

	tmp, err := os.CreateTemp(r.dir, targetID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("render %s: %w", targetID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := wt.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("render %s: %w", targetID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("render %s: %w", targetID, err)
	}
	return os.Rename(tmp.Name(), r.Path(targetID))
}

func buildPlot(title string, kind types.ChartKind, s types.Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)

	if s.Empty() {
		p.HideAxes()
		msg, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: 0, Y: 0}},
			Labels: []string{EmptyMessage},
		})
		if err != nil {
			return nil, err
		}
		p.Add(msg)
		return p, nil
	}

	switch kind {
	case types.ChartBar:
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), vg.Points(20))
		if err != nil {
			return nil, err
		}
		bars.Color = color.RGBA{R: 0, G: 71, B: 171, A: 255}
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars, plotter.NewGrid())
		p.NominalX(s.Labels...)
		rotateTicks(p, len(s.Labels))
		p.Y.Min = math.Min(0, p.Y.Min)

	case types.ChartLine:
		points := make(plotter.XYs, s.Len())
		for i, v := range s.Values {
			points[i] = plotter.XY{X: float64(i), Y: v}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, err
		}
		line.Width = vg.Points(2)
		line.Color = color.RGBA{R: 75, G: 156, B: 211, A: 255}
		dots, err := plotter.NewScatter(points)
		if err != nil {
			return nil, err
		}
		dots.GlyphStyle.Shape = draw.CircleGlyph{}
		dots.GlyphStyle.Color = line.Color
		p.Add(line, dots, plotter.NewGrid())
		p.NominalX(s.Labels...)
		rotateTicks(p, len(s.Labels))

	case types.ChartPie:
		p.HideAxes()
		pie := newPieChart(s)
		p.Add(pie)
		for i, label := range s.Labels {
			p.Legend.Add(fmt.Sprintf("%s (%.1f%%)", label, pie.share(i)*100), swatch{plotutil.Color(i)})
		}
		p.Legend.Top = true

	default:
		return nil, fmt.Errorf("unknown chart kind %q", kind)
	}
	return p, nil
}

func rotateTicks(p *plot.Plot, n int) {
	if n <= 6 {
		return
	}
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XRight
}

// pieChart draws wedges proportional to the positive values of a series.
type pieChart struct {
	values []float64
	total  float64
}

func newPieChart(s types.Series) *pieChart {
	pc := &pieChart{values: make([]float64, len(s.Values))}
	for i, v := range s.Values {
		if v > 0 {
			pc.values[i] = v
			pc.total += v
		}
	}
	return pc
}

func (pc *pieChart) share(i int) float64 {
	if pc.total == 0 {
		return 0
	}
	return pc.values[i] / pc.total
}

// Plot implements plot.Plotter.
func (pc *pieChart) Plot(c draw.Canvas, _ *plot.Plot) {
	if pc.total == 0 {
		return
	}
	center := c.Center()
	radius := vg.Length(math.Min(float64(c.Max.X-c.Min.X), float64(c.Max.Y-c.Min.Y))) * 0.4

	start := math.Pi / 2
	for i := range pc.values {
		sweep := -2 * math.Pi * pc.share(i)
		if sweep == 0 {
			continue
		}
		var path vg.Path
		path.Move(center)
		path.Line(vg.Point{
			X: center.X + radius*vg.Length(math.Cos(start)),
			Y: center.Y + radius*vg.Length(math.Sin(start)),
		})
		path.Arc(center, radius, start, sweep)
		path.Close()
		c.SetColor(plotutil.Color(i))
		c.Fill(path)
		start += sweep
	}
}

// swatch is a legend thumbnail filled with one wedge colour.
type swatch struct {
	color color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(s.color, []vg.Point{
		c.Min,
		{X: c.Min.X, Y: c.Max.Y},
		c.Max,
		{X: c.Max.X, Y: c.Min.Y},
	})
}
