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

// Package shapes reads and writes the shapefiles used by ptmdensity.
package shapes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"github.com/golang/groupcache/lru"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/ptmdensity"
)

// WGS84 is the .prj text written with every shapefile. Coordinates
// are longitude and latitude in degrees.
const WGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

var extensions = []string{".shp", ".prj", ".dbf", ".shx"}

// remove deletes any existing files belonging to the shapefile at path.
func remove(path string) {
	base := strings.TrimSuffix(path, ".shp")
	for _, ext := range extensions {
		os.Remove(base + ext)
	}
}

func writePrj(path string) error {
	f, err := os.Create(strings.TrimSuffix(path, ".shp") + ".prj")
	if err != nil {
		return fmt.Errorf("shapes: creating prj file: %v", err)
	}
	if _, err := fmt.Fprint(f, WGS84); err != nil {
		f.Close()
		return fmt.Errorf("shapes: writing prj file: %v", err)
	}
	return f.Close()
}

// Writer saves release site polygons as single-record shapefiles.
type Writer struct{}

// WriteSitePolygon writes polygon p of the given 1-based site to the
// shapefile at path, creating the parent directory if necessary.
func (Writer) WriteSitePolygon(path string, site int, p geom.Polygon) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("shapes: creating directory for site %d: %v", site, err)
	}
	remove(path)
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON, goshp.NumberField("site", 10))
	if err != nil {
		return fmt.Errorf("shapes: creating site %d shapefile: %v", site, err)
	}
	if err := e.EncodeFields(p, site); err != nil {
		e.Close()
		return fmt.Errorf("shapes: writing site %d polygon: %v", site, err)
	}
	e.Close()
	return writePrj(path)
}

// WriteGrid writes the cells of g to a polygon shapefile at path with
// row, col and count fields. counts must be a density matrix for g.
func WriteGrid(path string, g *ptmdensity.Grid, counts *sparse.DenseArray) error {
	if len(counts.Elements) != g.Increments*g.Increments {
		return fmt.Errorf("shapes: density matrix has %d elements but grid has %d cells",
			len(counts.Elements), g.Increments*g.Increments)
	}
	remove(path)
	fields := []goshp.Field{
		goshp.NumberField("row", 10),
		goshp.NumberField("col", 10),
		goshp.FloatField("count", 16, 2),
	}
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("shapes: creating grid shapefile: %v", err)
	}
	for row := 0; row < g.Increments; row++ {
		for col := 0; col < g.Increments; col++ {
			s, n, w, east := g.CellBounds(row, col)
			cell := geom.Polygon{{{X: w, Y: s}, {X: east, Y: s}, {X: east, Y: n}, {X: w, Y: n}, {X: w, Y: s}}}
			if err := e.EncodeFields(cell, row, col, counts.Get(row, col)); err != nil {
				e.Close()
				return fmt.Errorf("shapes: writing grid cell (%d, %d): %v", row, col, err)
			}
		}
	}
	e.Close()
	return writePrj(path)
}

// Cache holds the geometry of recently read shapefiles. It is safe for
// concurrent use.
type Cache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewCache returns a cache holding up to maxEntries shapefiles.
func NewCache(maxEntries int) *Cache {
	return &Cache{cache: lru.New(maxEntries)}
}

// Shapes returns the geometry of every record in the shapefile at
// path in longitude and latitude. Files without a .prj file are
// assumed to already be in longitude and latitude.
func (c *Cache) Shapes(path string) ([]geom.Geom, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.cache.Get(path); ok {
		return v.([]geom.Geom), nil
	}
	o, err := Read(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(path, o)
	return o, nil
}

// Read reads the geometry of every record in the shapefile at path,
// transforming it to longitude and latitude.
func Read(path string) ([]geom.Geom, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("shapes: opening %s: %v", path, err)
	}
	defer d.Close()

	var ct proj.Transformer
	if sr, err := d.SR(); err == nil {
		dst, err := proj.Parse(ptmdensity.LonLatProj)
		if err != nil {
			return nil, fmt.Errorf("shapes: %v", err)
		}
		ct, err = sr.NewTransform(dst)
		if err != nil {
			return nil, fmt.Errorf("shapes: creating transform for %s: %v", path, err)
		}
	}

	var o []geom.Geom
	for {
		var rec struct {
			geom.Geom
		}
		if more := d.DecodeRow(&rec); !more {
			break
		}
		if rec.Geom == nil {
			continue
		}
		g := rec.Geom
		if ct != nil {
			g, err = g.Transform(ct)
			if err != nil {
				return nil, fmt.Errorf("shapes: projecting %s: %v", path, err)
			}
		}
		o = append(o, g)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("shapes: reading %s: %v", path, err)
	}
	return o, nil
}
