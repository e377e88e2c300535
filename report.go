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
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// SummaryFile is the name of the file the all-sites results are written to.
const SummaryFile = "data_density.ncf"

// PolygonWriter saves the boundary polygon of a release site.
type PolygonWriter interface {
	WriteSitePolygon(path string, site int, p geom.Polygon) error
}

// Renderer draws density maps.
type Renderer interface {
	// PolygonOverview draws the release site polygons.
	PolygonOverview(path string, sites []geom.Polygon) error

	// Density draws a density matrix on grid g together with the site
	// polygons. The site with 0-based index highlight is drawn in a
	// different color; -1 highlights none.
	Density(path string, g *Grid, counts *sparse.DenseArray, sites []geom.Polygon, highlight int) error
}

// Metadata holds the run information written alongside the
// all-sites density matrix.
type Metadata struct {
	Selection  Selection
	Trajectory *TrajectoryBundle
	Sites      *ReleaseSites

	// ParameterHash identifies the configuration the run used.
	ParameterHash string
}

// ReportWriter writes density matrices to an output directory.
type ReportWriter struct {
	Dir string

	// KeepSiteData specifies whether per-site matrices are written.
	KeepSiteData bool
}

// SiteDir returns the directory that files for the given 1-based
// site number are written in.
func (w *ReportWriter) SiteDir(site int) string {
	return filepath.Join(w.Dir, fmt.Sprintf("site_%d", site))
}

// SiteFile returns the path of the density file for the given site.
func (w *ReportWriter) SiteFile(site int) string {
	return filepath.Join(w.SiteDir(site), fmt.Sprintf("density_for_site_%d.ncf", site))
}

// WriteSite writes the density matrix of a single site if KeepSiteData
// is true. Empty sites are written as all-zero matrices.
func (w *ReportWriter) WriteSite(r *SiteResult) error {
	if !w.KeepSiteData {
		return nil
	}
	if err := os.MkdirAll(w.SiteDir(r.Site), os.ModePerm); err != nil {
		return fmt.Errorf("ptmdensity: creating site output directory: %v", err)
	}
	f, err := os.Create(w.SiteFile(r.Site))
	if err != nil {
		return fmt.Errorf("ptmdensity: creating site density file: %v", err)
	}
	vars := []ncfVariable{
		{name: "particle_counts_density", dims: []string{"lat", "lon"}, data: r.Counts,
			description: "number of particle positions in each grid cell"},
	}
	attrs := map[string]interface{}{
		"site":      []int32{int32(r.Site)},
		"sum_check": []float64{r.SumCheck},
	}
	if err := createNCF(f, "particle density for a single release site", attrs, vars); err != nil {
		f.Close()
		return fmt.Errorf("ptmdensity: writing site %d density: %v", r.Site, err)
	}
	return f.Close()
}

// WriteSummary writes the all-sites density matrix, the grid and
// the run metadata to SummaryFile.
func (w *ReportWriter) WriteSummary(d *Density, m *Metadata) error {
	f, err := os.Create(filepath.Join(w.Dir, SummaryFile))
	if err != nil {
		return fmt.Errorf("ptmdensity: creating summary file: %v", err)
	}
	g := d.Grid
	sumCheck := make([]float64, len(d.Sites))
	for i, s := range d.Sites {
		sumCheck[i] = s.SumCheck
	}
	t, s := m.Trajectory, m.Sites
	vars := []ncfVariable{
		{name: "particle_counts_density", dims: []string{"lat", "lon"}, data: d.All,
			description: "number of particle positions in each grid cell, all sites"},
		{name: "lat_grid", dims: []string{"lat"}, data: vector(g.LatGrid), description: "latitude grid points"},
		{name: "lon_grid", dims: []string{"lon"}, data: vector(g.LonGrid), description: "longitude grid points"},
		{name: "increments", dims: []string{"one"}, data: scalar(float64(g.Increments)), description: "grid bins per axis"},
		{name: "days_indices", dims: []string{"day"}, data: intVector(m.Selection.Days), description: "selected days (1-based)"},
		{name: "months_indices", dims: []string{"month"}, data: intVector(m.Selection.Months), description: "selected months (1-based)"},
		{name: "time_indices", dims: []string{"time"}, data: intVector(m.Selection.Times), description: "selected time steps (1-based)"},
		{name: "sum_check", dims: []string{"site"}, data: vector(sumCheck), description: "total count for each site"},
		{name: "ns", dims: []string{"one"}, data: scalar(float64(s.NS())), description: "number of release sites"},
		{name: "nrel", dims: []string{"one"}, data: scalar(float64(s.NRel)), description: "particles per site"},
		{name: "nmonth", dims: dimNames("nmonth", t.MSave), data: t.MSave, description: "release months"},
		{name: "ndays", dims: dimNames("ndays", t.DSave), data: t.DSave, description: "release days"},
		{name: "xstart", dims: dimNames("xstart", t.XStart), data: t.XStart, description: "release x positions"},
		{name: "ystart", dims: dimNames("ystart", t.YStart), data: t.YStart, description: "release y positions"},
		{name: "DT", dims: dimNames("DT", t.DT), data: t.DT, description: "time step"},
		{name: "pld", dims: dimNames("pld", t.PLD), data: t.PLD, description: "planktonic larval duration"},
		{name: "plat", dims: []string{"center"}, data: vector(s.PLat), description: "site center latitudes"},
		{name: "plon", dims: []string{"center"}, data: vector(s.PLon), description: "site center longitudes"},
		{name: "xc", dims: []string{"site"}, data: vector(s.XC), description: "projected site center x coordinates"},
		{name: "yc", dims: []string{"site"}, data: vector(s.YC), description: "projected site center y coordinates"},
		{name: "s_xc", dims: []string{"site", "vertex"}, data: s.SXC, description: "projected polygon x coordinates"},
		{name: "s_yc", dims: []string{"site", "vertex"}, data: s.SYC, description: "projected polygon y coordinates"},
		{name: "r", dims: []string{"one"}, data: scalar(s.R), description: "site radius"},
	}
	attrs := map[string]interface{}{
		"lat_min":        []float64{g.LatMin},
		"lat_max":        []float64{g.LatMax},
		"lon_min":        []float64{g.LonMin},
		"lon_max":        []float64{g.LonMax},
		"lat_increment":  []float64{g.LatIncrement},
		"lon_increment":  []float64{g.LonIncrement},
		"bin_convention": g.Convention.String(),
	}
	if m.ParameterHash != "" {
		attrs["parameter_hash"] = m.ParameterHash
	}
	if err := createNCF(f, "particle density for all release sites", attrs, vars); err != nil {
		f.Close()
		return fmt.Errorf("ptmdensity: writing summary: %v", err)
	}
	return f.Close()
}
