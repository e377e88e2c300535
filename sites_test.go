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
	"math"
	"testing"
)

func TestPolygons(t *testing.T) {
	s := testSites(2, 1)
	// Put the first site on the central meridian of UTM zone 30 at the equator.
	// Set skips zero values, so the first row is written directly.
	for j, d := range [][2]float64{{-100, 0}, {100, 0}, {100, 200}, {-100, 200}} {
		s.SXC.Elements[j] = 500000 + d[0]
		s.SYC.Elements[j] = d[1]
	}
	polys, err := s.Polygons(DefaultSiteProj)
	if err != nil {
		t.Fatal(err)
	}
	if len(polys) != 2 {
		t.Fatalf("have %d polygons, want 2", len(polys))
	}
	for i, p := range polys {
		if len(p) != 1 || len(p[0]) != 5 {
			t.Fatalf("site %d: polygon should be a single closed ring of 5 points: %v", i+1, p)
		}
		if p[0][0] != p[0][4] {
			t.Errorf("site %d: ring is not closed", i+1)
		}
	}
	b := polys[0].Bounds()
	lon := (b.Min.X + b.Max.X) / 2
	if math.Abs(lon-(-3)) > 1e-6 {
		t.Errorf("center longitude: have %g, want -3", lon)
	}
	if math.Abs(b.Min.Y) > 1e-6 || b.Max.Y <= 0 || b.Max.Y > 0.01 {
		t.Errorf("latitude bounds: have [%g, %g]", b.Min.Y, b.Max.Y)
	}
	b2 := polys[1].Bounds()
	if b2.Min.Y < 54 || b2.Max.Y > 54.3 {
		t.Errorf("site 2 latitude bounds: have [%g, %g]", b2.Min.Y, b2.Max.Y)
	}

	if _, err := s.Polygons("+proj=nonsense"); err == nil {
		t.Errorf("an invalid projection should fail")
	}
}
