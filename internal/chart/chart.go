package chart

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"StockInsight/internal/calculator"
	"StockInsight/internal/model"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"
)

const (
	width  = 10 * vg.Inch
	height = 4.5 * vg.Inch
)

// Plotter renders one PNG per symbol with the close and its moving averages.
type Plotter struct {
	Dir string
}

func NewPlotter(dir string) *Plotter { return &Plotter{Dir: dir} }

// Path returns DIR/DATE_SYMBOL.png for the symbol that produced the data.
func (p *Plotter) Path(date string, series *model.BarSeries) string {
	return filepath.Join(p.Dir, fmt.Sprintf("%s_%s.png", date, series.Symbol))
}

// Plot draws series and saves it under Dir, returning the file path.
func (p *Plotter) Plot(date string, series *model.BarSeries) (string, error) {
	if series.Empty() {
		return "", fmt.Errorf("chart %s: empty series", series.Requested)
	}
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s — Price & SMA", series.Symbol)
	pl.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	pl.Y.Label.Text = "Price"
	pl.Add(plotter.NewGrid())

	closes := series.Closes()
	lines := []interface{}{"Close", points(series, closes)}
	for _, period := range []int{20, 50, 200} {
		if len(closes) < period {
			continue
		}
		lines = append(lines, fmt.Sprintf("SMA%d", period), points(series, calculator.SMASeries(closes, period)))
	}
	if err := plotutil.AddLines(pl, lines...); err != nil {
		return "", fmt.Errorf("chart %s: %w", series.Symbol, err)
	}

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	path := p.Path(date, series)
	if err := pl.Save(width, height, path); err != nil {
		return "", fmt.Errorf("save chart %s: %w", path, err)
	}
	return path, nil
}

// points pairs bar times with values, leaving out undefined warm-up values.
func points(series *model.BarSeries, values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(series.Bars[i].Time.Unix()), Y: v})
	}
	return xys
}
