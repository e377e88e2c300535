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
	"os"
	"reflect"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// TrajectoryBundle holds the output of a particle tracking model run.
type TrajectoryBundle struct {
	// XStart and YStart are the release positions.
	XStart, YStart *sparse.DenseArray

	// MSave and DSave are the months and days of release.
	MSave, DSave *sparse.DenseArray

	// DT is the time step and PLD the planktonic larval duration.
	DT, PLD *sparse.DenseArray

	// Lat and Lon are the particle positions as stored on disk, with
	// rank 2, 3 or 4. Zero values mark positions that were never occupied.
	Lat, Lon *sparse.DenseArray
}

// ReadTrajectoryBundle reads a trajectory bundle from a NetCDF file.
func ReadTrajectoryBundle(rw cdf.ReaderWriterAt) (*TrajectoryBundle, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, &BundleError{Bundle: "trajectory", Err: err}
	}
	b := new(TrajectoryBundle)
	fields := []struct {
		name string
		dst  **sparse.DenseArray
	}{
		{"xstart", &b.XStart},
		{"ystart", &b.YStart},
		{"msave", &b.MSave},
		{"dsave", &b.DSave},
		{"DT", &b.DT},
		{"pld", &b.PLD},
		{"latsave", &b.Lat},
		{"lonsave", &b.Lon},
	}
	for _, fld := range fields {
		if *fld.dst, err = readNCF(f, fld.name); err != nil {
			return nil, &BundleError{Bundle: "trajectory", Field: fld.name, Err: err}
		}
	}
	if !reflect.DeepEqual(b.Lat.Shape, b.Lon.Shape) {
		return nil, &BundleError{Bundle: "trajectory", Field: "lonsave",
			Err: fmt.Errorf("shape %v does not match latsave shape %v", b.Lon.Shape, b.Lat.Shape)}
	}
	return b, nil
}

// Trajectories restores the canonical shape of the position arrays
// using shapeCheck and returns the samples chosen by sel.
func (b *TrajectoryBundle) Trajectories(shapeCheck []int, sel Selection) (*Trajectories, error) {
	shape, err := DetectShape(len(b.Lat.Shape), shapeCheck)
	if err != nil {
		return nil, err
	}
	var lat, lon *sparse.DenseArray
	if lat, err = shape.Normalize(b.Lat); err != nil {
		return nil, err
	}
	if lon, err = shape.Normalize(b.Lon); err != nil {
		return nil, err
	}
	if lat, err = sel.Apply(lat); err != nil {
		return nil, err
	}
	if lon, err = sel.Apply(lon); err != nil {
		return nil, err
	}
	return NewTrajectories(lat, lon)
}

// Write writes the bundle to w in NetCDF format.
func (b *TrajectoryBundle) Write(w *os.File) error {
	vars := []ncfVariable{
		{name: "xstart", dims: dimNames("xstart", b.XStart), data: b.XStart, description: "release x positions"},
		{name: "ystart", dims: dimNames("ystart", b.YStart), data: b.YStart, description: "release y positions"},
		{name: "msave", dims: dimNames("msave", b.MSave), data: b.MSave, description: "release months"},
		{name: "dsave", dims: dimNames("dsave", b.DSave), data: b.DSave, description: "release days"},
		{name: "DT", dims: dimNames("DT", b.DT), data: b.DT, description: "time step"},
		{name: "pld", dims: dimNames("pld", b.PLD), data: b.PLD, description: "planktonic larval duration"},
		{name: "latsave", dims: dimNames("pos", b.Lat), data: b.Lat, description: "particle latitudes"},
		{name: "lonsave", dims: dimNames("pos", b.Lon), data: b.Lon, description: "particle longitudes"},
	}
	return createNCF(w, "particle tracking model output", nil, vars)
}

// ReleaseSites describes the sites particles are released from.
type ReleaseSites struct {
	// NRel is the number of particles released from each site.
	NRel int

	// PLat and PLon are the site center coordinates.
	PLat, PLon []float64

	// XC and YC are the projected site centers. There is one site per
	// element of XC.
	XC, YC []float64

	// R is the site radius.
	R float64

	// SXC and SYC are the projected polygon vertex coordinates with
	// shape [site, vertex].
	SXC, SYC *sparse.DenseArray
}

// NS returns the number of release sites.
func (s *ReleaseSites) NS() int { return len(s.XC) }

// ReadReleaseSites reads release site information from a NetCDF file.
func ReadReleaseSites(rw cdf.ReaderWriterAt) (*ReleaseSites, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, &BundleError{Bundle: "release-sites", Err: err}
	}
	read := func(name string) (*sparse.DenseArray, error) {
		a, err := readNCF(f, name)
		if err != nil {
			return nil, &BundleError{Bundle: "release-sites", Field: name, Err: err}
		}
		return a, nil
	}
	s := new(ReleaseSites)
	vectors := []struct {
		name string
		dst  *[]float64
	}{
		{"plat", &s.PLat},
		{"plon", &s.PLon},
		{"xc", &s.XC},
		{"yc", &s.YC},
	}
	for _, v := range vectors {
		a, err := read(v.name)
		if err != nil {
			return nil, err
		}
		*v.dst = a.Elements
	}
	np, err := read("np")
	if err != nil {
		return nil, err
	}
	s.NRel = int(np.Elements[0])
	r, err := read("r")
	if err != nil {
		return nil, err
	}
	s.R = r.Elements[0]
	if s.SXC, err = read("s_xc"); err != nil {
		return nil, err
	}
	if s.SYC, err = read("s_yc"); err != nil {
		return nil, err
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ReleaseSites) check() error {
	if s.NRel < 1 {
		return &BundleError{Bundle: "release-sites", Field: "np",
			Err: fmt.Errorf("must be positive but is %d", s.NRel)}
	}
	if len(s.YC) != len(s.XC) {
		return &BundleError{Bundle: "release-sites", Field: "yc",
			Err: fmt.Errorf("length %d does not match xc length %d", len(s.YC), len(s.XC))}
	}
	for _, v := range []struct {
		name string
		a    *sparse.DenseArray
	}{{"s_xc", s.SXC}, {"s_yc", s.SYC}} {
		if len(v.a.Shape) != 2 || v.a.Shape[0] != s.NS() {
			return &BundleError{Bundle: "release-sites", Field: v.name,
				Err: fmt.Errorf("shape %v should be [%d, vertices]", v.a.Shape, s.NS())}
		}
	}
	if !reflect.DeepEqual(s.SXC.Shape, s.SYC.Shape) {
		return &BundleError{Bundle: "release-sites", Field: "s_yc",
			Err: fmt.Errorf("shape %v does not match s_xc shape %v", s.SYC.Shape, s.SXC.Shape)}
	}
	return nil
}

// Write writes the release sites to w in NetCDF format.
func (s *ReleaseSites) Write(w *os.File) error {
	vars := []ncfVariable{
		{name: "np", dims: []string{"one"}, data: scalar(float64(s.NRel)), description: "particles per site"},
		{name: "plat", dims: []string{"center"}, data: vector(s.PLat), description: "site center latitudes"},
		{name: "plon", dims: []string{"center"}, data: vector(s.PLon), description: "site center longitudes"},
		{name: "xc", dims: []string{"site"}, data: vector(s.XC), description: "projected site center x coordinates"},
		{name: "yc", dims: []string{"site"}, data: vector(s.YC), description: "projected site center y coordinates"},
		{name: "r", dims: []string{"one"}, data: scalar(s.R), description: "site radius"},
		{name: "s_xc", dims: []string{"site", "vertex"}, data: s.SXC, description: "projected polygon x coordinates"},
		{name: "s_yc", dims: []string{"site", "vertex"}, data: s.SYC, description: "projected polygon y coordinates"},
	}
	return createNCF(w, "particle release sites", nil, vars)
}
