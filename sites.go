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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// DefaultSiteProj is the spatial reference of the projected release
// site polygon coordinates if no other is given.
const DefaultSiteProj = "+proj=utm +zone=30 +ellps=WGS84 +units=m +no_defs"

// LonLatProj is the geographic spatial reference outputs are written in.
const LonLatProj = "+proj=longlat +datum=WGS84 +no_defs"

// Polygons returns the boundary of each release site in longitude
// and latitude. siteProj is the spatial reference of SXC and SYC.
func (s *ReleaseSites) Polygons(siteProj string) ([]geom.Polygon, error) {
	src, err := proj.Parse(siteProj)
	if err != nil {
		return nil, fmt.Errorf("ptmdensity: parsing release site projection: %v", err)
	}
	dst, err := proj.Parse(LonLatProj)
	if err != nil {
		return nil, fmt.Errorf("ptmdensity: parsing longitude-latitude projection: %v", err)
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("ptmdensity: creating release site transform: %v", err)
	}

	nv := s.SXC.Shape[1]
	o := make([]geom.Polygon, s.NS())
	for i := range o {
		path := make(geom.Path, 0, nv+1)
		for j := 0; j < nv; j++ {
			path = append(path, geom.Point{
				X: s.SXC.Elements[i*nv+j],
				Y: s.SYC.Elements[i*nv+j],
			})
		}
		if len(path) > 0 && path[0] != path[len(path)-1] {
			path = append(path, path[0])
		}
		g, err := geom.Polygon{path}.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("ptmdensity: projecting site %d polygon: %v", i+1, err)
		}
		o[i] = g.(geom.Polygon)
	}
	return o, nil
}
