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

package ptmdensity

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// BinConvention specifies how a coordinate is assigned to a grid bin.
type BinConvention int

const (
	// EdgeBins treats grid points as left bin edges. A value v falls in bin
	// floor((v-min)/width), clamped to the last bin so that the maximum
	// value is counted.
	EdgeBins BinConvention = iota

	// CenteredBins treats grid points as bin centers, so bin l covers
	// [grid[l]-width/2, grid[l]+width/2). Values in the upper half of the
	// last cell fall in no bin and are not counted.
	CenteredBins
)

// ParseBinConvention returns the convention named by s, which
// is either "edge" or "centered".
func ParseBinConvention(s string) (BinConvention, error) {
	switch s {
	case "edge", "":
		return EdgeBins, nil
	case "centered", "centred":
		return CenteredBins, nil
	}
	return EdgeBins, fmt.Errorf("ptmdensity: invalid bin convention %q; "+
		"valid options are 'edge' and 'centered'", s)
}

func (c BinConvention) String() string {
	if c == CenteredBins {
		return "centered"
	}
	return "edge"
}

// Grid is a uniform latitude-longitude grid with Increments bins
// along each axis. It is read-only once created.
type Grid struct {
	LatMin, LatMax, LonMin, LonMax float64
	Increments                     int

	// LatIncrement and LonIncrement are the bin widths.
	LatIncrement, LonIncrement float64

	// LatGrid and LonGrid hold Increments points starting at the minimum
	// and spaced by the bin width.
	LatGrid, LonGrid []float64

	Convention BinConvention
}

// extent returns the minimum and maximum non-NaN values in a.
// ok is false if every value is NaN.
func extent(a []float64) (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range a {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}

// NewGrid creates a grid covering the non-missing values in lats and lons.
func NewGrid(lats, lons *sparse.DenseArray, increments int, conv BinConvention) (*Grid, error) {
	if increments < 1 {
		return nil, fmt.Errorf("ptmdensity: increments must be positive but is %d", increments)
	}
	g := &Grid{Increments: increments, Convention: conv}
	var ok bool
	if g.LatMin, g.LatMax, ok = extent(lats.Elements); !ok {
		return nil, &DegenerateExtentError{Axis: "latitude"}
	}
	if g.LonMin, g.LonMax, ok = extent(lons.Elements); !ok {
		return nil, &DegenerateExtentError{Axis: "longitude"}
	}
	g.LatIncrement = (g.LatMax - g.LatMin) / float64(increments)
	g.LonIncrement = (g.LonMax - g.LonMin) / float64(increments)
	g.LatGrid = make([]float64, increments)
	g.LonGrid = make([]float64, increments)
	for i := 0; i < increments; i++ {
		g.LatGrid[i] = g.LatMin + float64(i)*g.LatIncrement
		g.LonGrid[i] = g.LonMin + float64(i)*g.LonIncrement
	}
	return g, nil
}

// Bin returns the row (latitude bin) and column (longitude bin) that
// the given position falls in. ok is false if either coordinate is
// missing or outside the grid.
func (g *Grid) Bin(lat, lon float64) (row, col int, ok bool) {
	if row, ok = g.bin(lat, g.LatMin, g.LatMax, g.LatIncrement, g.LatGrid); !ok {
		return
	}
	col, ok = g.bin(lon, g.LonMin, g.LonMax, g.LonIncrement, g.LonGrid)
	return
}

func (g *Grid) bin(v, min, max, width float64, points []float64) (int, bool) {
	if math.IsNaN(v) {
		return 0, false
	}
	n := len(points)
	if g.Convention == CenteredBins {
		if !(width > 0) {
			return 0, false
		}
		l := int(math.Floor((v-min)/width + 0.5))
		// Check the neighbors as well so the result matches a scan over
		// the bins despite rounding in the division.
		for c := l - 1; c <= l+1; c++ {
			if c < 0 || c >= n {
				continue
			}
			if points[c]-width/2 <= v && v < points[c]+width/2 {
				return c, true
			}
		}
		return 0, false
	}
	if v < min || v > max {
		return 0, false
	}
	if !(width > 0) {
		return 0, true
	}
	l := int(math.Floor((v - min) / width))
	if l >= n {
		l = n - 1
	} else if l < 0 {
		l = 0
	}
	return l, true
}

// NewMatrix returns a zeroed Increments x Increments density matrix.
func (g *Grid) NewMatrix() *sparse.DenseArray {
	return sparse.ZerosDense(g.Increments, g.Increments)
}

// CellBounds returns the latitude and longitude bounds of the given cell.
func (g *Grid) CellBounds(row, col int) (south, north, west, east float64) {
	south = g.LatMin + float64(row)*g.LatIncrement
	west = g.LonMin + float64(col)*g.LonIncrement
	return south, south + g.LatIncrement, west, west + g.LonIncrement
}
