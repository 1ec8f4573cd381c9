// Package chart renders analysis results as PNG bar and line charts.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/aravindramcb/water-models/internal/util"
	gochart "github.com/wcharczuk/go-chart/v2"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

// Bar is one labelled bar.
type Bar struct {
	Label string
	Value float64
}

// Series is one line of a line chart.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Bars renders a bar chart.
func Bars(w io.Writer, title string, bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("bar chart %q has no bars", title)
	}

	values := make([]gochart.Value, len(bars))
	top := 0.0
	for i, b := range bars {
		values[i] = gochart.Value{Label: b.Label, Value: b.Value}
		top = math.Max(top, b.Value)
	}
	if top == 0 {
		top = 1
	}

	barWidth := (DefaultWidth - 120) / len(bars) * 2 / 3
	if barWidth < 4 {
		barWidth = 4
	}

	bc := gochart.BarChart{
		Title:      title,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		BarWidth:   barWidth,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: values,
	}
	return bc.Render(gochart.PNG, w)
}

// Lines renders one line per series on shared axes.
func Lines(w io.Writer, title, xName, yName string, series []Series) error {
	minY, maxY := math.Inf(1), math.Inf(-1)
	points := 0
	var out []gochart.Series
	for i, s := range series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("series %q has %d x and %d y values", s.Name, len(s.X), len(s.Y))
		}
		if len(s.X) == 0 {
			continue
		}
		for _, y := range s.Y {
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
		points += len(s.X)
		out = append(out, gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.X,
			YValues: s.Y,
			Style: gochart.Style{
				StrokeColor: gochart.GetDefaultColor(i),
				StrokeWidth: 1.5,
			},
		})
	}
	if points < 2 {
		return fmt.Errorf("line chart %q needs at least two points", title)
	}
	if minY == maxY {
		minY, maxY = minY-0.5, maxY+0.5
	}

	ch := gochart.Chart{
		Title:      title,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: xName},
		YAxis: gochart.YAxis{
			Name:  yName,
			Range: &gochart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: out,
	}
	if len(out) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	return ch.Render(gochart.PNG, w)
}

// SavePNG creates path, including missing directories, and renders into it.
func SavePNG(path string, render func(io.Writer) error) error {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	util.LogInfo("Chart written", util.F("path", path))
	return nil
}
