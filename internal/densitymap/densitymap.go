/*
Copyright © 2024 the ptmdensity authors.
This file is part of ptmdensity.

ptmdensity is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ptmdensity is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ptmdensity.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package densitymap draws particle density maps as PNG images.
package densitymap

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/ptmdensity"
	"github.com/spatialmodel/ptmdensity/internal/shapes"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	coastColor     = color.NRGBA{R: 0x9a, G: 0x63, B: 0x24, A: 102}
	siteColor      = color.NRGBA{R: 0x43, G: 0x63, B: 0xd8, A: 102}
	highlightColor = color.NRGBA{R: 0xe6, G: 0x19, B: 0x4b, A: 102}

	edge = draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
)

const (
	figWidth  = 6.4 * vg.Inch
	figHeight = 4.8 * vg.Inch
)

// Renderer draws maps of release sites and particle densities.
// It implements ptmdensity.Renderer.
type Renderer struct {
	// Limits are the minimum and maximum longitude followed by the
	// minimum and maximum latitude of the mapped area.
	Limits [4]float64

	// DPI is the image resolution.
	DPI int

	// Coastline is the path to a shapefile drawn underneath everything
	// else. No basemap is drawn if it is empty.
	Coastline string

	// Cache holds the decoded coastline.
	Cache *shapes.Cache
}

// New returns a Renderer for the given map limits and resolution.
func New(limits []float64, dpi int, coastline string, cache *shapes.Cache) (*Renderer, error) {
	if len(limits) != 4 {
		return nil, fmt.Errorf("densitymap: limits must have 4 values but have %d", len(limits))
	}
	if !(limits[1] > limits[0]) || !(limits[3] > limits[2]) {
		return nil, fmt.Errorf("densitymap: invalid map limits %v", limits)
	}
	if dpi <= 0 {
		return nil, fmt.Errorf("densitymap: dpi must be positive but is %d", dpi)
	}
	if cache == nil {
		cache = shapes.NewCache(1)
	}
	r := &Renderer{DPI: dpi, Coastline: coastline, Cache: cache}
	copy(r.Limits[:], limits)
	return r, nil
}

// newPlot returns a map with the renderer limits, the coastline
// drawn, and the given title.
func (r *Renderer) newPlot(title string) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, fmt.Errorf("densitymap: %v", err)
	}
	p.Title.Text = title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	if r.Coastline != "" {
		coast, err := r.Cache.Shapes(r.Coastline)
		if err != nil {
			return nil, fmt.Errorf("densitymap: reading coastline: %v", err)
		}
		p.Add(&geomLayer{shapes: coast, fill: coastColor, line: edge})
	}
	return p, nil
}

func (r *Renderer) setLimits(p *plot.Plot) {
	p.X.Min, p.X.Max = r.Limits[0], r.Limits[1]
	p.Y.Min, p.Y.Max = r.Limits[2], r.Limits[3]
	p.X.Padding, p.Y.Padding = 0, 0
}

func (r *Renderer) save(path string, c *vgimg.Canvas) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("densitymap: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("densitymap: %v", err)
	}
	if _, err = (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("densitymap: writing %s: %v", path, err)
	}
	return f.Close()
}

func (r *Renderer) canvas() *vgimg.Canvas {
	return vgimg.NewWith(vgimg.UseWH(figWidth, figHeight), vgimg.UseDPI(r.DPI))
}

// PolygonOverview draws the release site polygons filled in a single
// color and saves the map to path.
func (r *Renderer) PolygonOverview(path string, sites []geom.Polygon) error {
	p, err := r.newPlot("Release site polygons")
	if err != nil {
		return err
	}
	p.Add(&geomLayer{shapes: polygonal(sites), fill: siteColor, line: edge})
	r.setLimits(p)
	img := r.canvas()
	p.Draw(draw.New(img))
	return r.save(path, img)
}

// Density draws the counts on grid g on a logarithmic color scale with
// a color bar underneath, overlays the release sites, and saves the
// map to path. The site with 0-based index highlight is drawn in a
// different color; -1 highlights none.
func (r *Renderer) Density(path string, g *ptmdensity.Grid, counts *sparse.DenseArray, sites []geom.Polygon, highlight int) error {
	title := "Particle density for all sites"
	if highlight >= 0 {
		title = fmt.Sprintf("Particle density for site %d", highlight+1)
	}
	p, err := r.newPlot(title)
	if err != nil {
		return err
	}
	cm := colorMap(counts.Elements)
	p.Add(&densityLayer{grid: g, counts: counts, cm: cm})

	var others, highlighted []geom.Polygon
	for i, s := range sites {
		if i == highlight {
			highlighted = append(highlighted, s)
		} else {
			others = append(others, s)
		}
	}
	p.Add(&geomLayer{shapes: polygonal(others), fill: siteColor, line: edge})
	p.Add(&geomLayer{shapes: polygonal(highlighted), fill: highlightColor, line: edge})
	r.setLimits(p)

	l, err := plot.New()
	if err != nil {
		return fmt.Errorf("densitymap: %v", err)
	}
	l.Add(&plotter.ColorBar{ColorMap: cm})
	l.HideY()
	l.X.Padding = 0
	l.X.Label.Text = "log10(particle count)"

	img := r.canvas()
	dc := draw.New(img)
	legendHeight := figHeight / 6
	p.Draw(draw.Crop(dc, 0, 0, legendHeight, 0))
	l.Draw(draw.Crop(dc, figWidth/10, -figWidth/10, 0, legendHeight-figHeight))
	return r.save(path, img)
}

// colorMap returns a color map spanning the base-10 logarithm of the
// positive values in counts.
func colorMap(counts []float64) palette.ColorMap {
	cm := moreland.ExtendedBlackBody()
	hi := 1.
	if len(counts) > 0 {
		hi = math.Max(hi, floats.Max(counts))
	}
	cm.SetMin(0)
	cm.SetMax(math.Max(math.Log10(hi), 1))
	return cm
}

// cellColor returns the color of a cell holding count particles.
// ok is false for empty cells, which are not drawn.
func cellColor(cm palette.ColorMap, count float64) (c color.Color, ok bool) {
	if !(count > 0) {
		return nil, false
	}
	v := math.Log10(count)
	v = math.Max(cm.Min(), math.Min(cm.Max(), v))
	c, err := cm.At(v)
	if err != nil {
		return nil, false
	}
	return c, true
}

// densityLayer draws the cells of a density matrix.
type densityLayer struct {
	grid   *ptmdensity.Grid
	counts *sparse.DenseArray
	cm     palette.ColorMap
}

// Plot implements the plot.Plotter interface.
func (d *densityLayer) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for row := 0; row < d.grid.Increments; row++ {
		for col := 0; col < d.grid.Increments; col++ {
			clr, ok := cellColor(d.cm, d.counts.Get(row, col))
			if !ok {
				continue
			}
			s, n, w, e := d.grid.CellBounds(row, col)
			pts := []vg.Point{
				{X: trX(w), Y: trY(s)},
				{X: trX(e), Y: trY(s)},
				{X: trX(e), Y: trY(n)},
				{X: trX(w), Y: trY(n)},
			}
			if clipped := c.ClipPolygonXY(pts); len(clipped) > 0 {
				c.FillPolygon(clr, clipped)
			}
		}
	}
}

func polygonal(p []geom.Polygon) []geom.Geom {
	o := make([]geom.Geom, len(p))
	for i, pp := range p {
		o[i] = pp
	}
	return o
}

// geomLayer draws polygons with an optional fill and outline.
type geomLayer struct {
	shapes []geom.Geom
	fill   color.Color
	line   draw.LineStyle
}

// Plot implements the plot.Plotter interface.
func (l *geomLayer) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, g := range l.shapes {
		l.draw(c, trX, trY, g)
	}
}

func (l *geomLayer) draw(c draw.Canvas, trX, trY func(float64) vg.Length, g geom.Geom) {
	switch t := g.(type) {
	case geom.Polygon:
		for i, ring := range t {
			pts := make([]vg.Point, len(ring))
			for j, pt := range ring {
				pts[j] = vg.Point{X: trX(pt.X), Y: trY(pt.Y)}
			}
			// Holes are outlined but not filled.
			if i == 0 && l.fill != nil {
				if clipped := c.ClipPolygonXY(pts); len(clipped) > 0 {
					c.FillPolygon(l.fill, clipped)
				}
			}
			if l.line.Color != nil && l.line.Width > 0 {
				c.StrokeLines(l.line, c.ClipLinesXY(pts)...)
			}
		}
	case geom.MultiPolygon:
		for _, pg := range t {
			l.draw(c, trX, trY, pg)
		}
	}
}
