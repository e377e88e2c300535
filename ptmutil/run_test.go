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

package ptmutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/ptmdensity"
)

// writeInputs writes a trajectory file and a release sites file to
// dir. There are two sites with two particles each. The particles of
// the second site never have a position.
func writeInputs(t *testing.T, dir string) (trajectories, sites string) {
	// Month axis collapsed: [particle, day, time-step].
	lat := sparse.ZerosDense(4, 2, 3)
	lon := sparse.ZerosDense(4, 2, 3)
	for i := 0; i < 12; i++ {
		lat.Elements[i] = 54 + 0.01*float64(i)
		lon.Elements[i] = -3 + 0.01*float64(i)
	}
	vec := func(v ...float64) *sparse.DenseArray {
		a := sparse.ZerosDense(len(v))
		copy(a.Elements, v)
		return a
	}
	b := &ptmdensity.TrajectoryBundle{
		XStart: vec(500000, 501000),
		YStart: vec(6000000, 6000000),
		MSave:  vec(6),
		DSave:  vec(1, 2),
		DT:     vec(3600),
		PLD:    vec(30),
		Lat:    lat,
		Lon:    lon,
	}
	s := &ptmdensity.ReleaseSites{
		NRel: 2,
		R:    100,
		SXC:  sparse.ZerosDense(2, 4),
		SYC:  sparse.ZerosDense(2, 4),
	}
	for i := 0; i < 2; i++ {
		x, y := 500000+1000*float64(i), 6000000.
		s.PLat = append(s.PLat, 54.1)
		s.PLon = append(s.PLon, -3)
		s.XC = append(s.XC, x)
		s.YC = append(s.YC, y)
		for j, d := range [][2]float64{{-100, -100}, {100, -100}, {100, 100}, {-100, 100}} {
			s.SXC.Set(x+d[0], i, j)
			s.SYC.Set(y+d[1], i, j)
		}
	}

	trajectories = filepath.Join(dir, "ptm.ncf")
	sites = filepath.Join(dir, "sites.ncf")
	for path, w := range map[string]interface {
		Write(*os.File) error
	}{trajectories: b, sites: s} {
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Write(f); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	return
}

func writeConfig(t *testing.T, dir string, keepShapefiles, keepMats int) string {
	trajectories, sites := writeInputs(t, dir)
	path := filepath.Join(dir, "parameters.toml")
	cfg := fmt.Sprintf(`ptm_output_file = %q
release_sites_file = %q
output_dir = %q
days_indices = [1, 2]
months_indices = [1]
time_indices = [1, 2, 3]
shape_check = [4, 2, 1, 3]
fig_lims = [-3.5, -2.5, 53.8, 54.5]
dpi = 30
keep_polygon_shapefiles = %d
keep_polygon_mats = %d
increments = 5
workers = 2
`, trajectories, sites, filepath.Join(dir, "output"), keepShapefiles, keepMats)
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runRoot runs the command line interface and returns the output
// directory and the command output.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	buf := new(bytes.Buffer)
	if args == nil {
		args = []string{}
	}
	Root.SetArgs(args)
	Root.SetOutput(buf)
	defer Root.SetOutput(nil)
	err := Root.Execute()
	if err != nil || len(args) != 1 {
		return "", buf.String(), err
	}
	dirs, _ := filepath.Glob(filepath.Join(filepath.Dir(args[0]), "output", "*_plot_density"))
	if len(dirs) != 1 {
		t.Fatalf("want one output directory, have %v", dirs)
	}
	return dirs[0], buf.String(), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRun(t *testing.T) {
	t.Run("keep mats", func(t *testing.T) {
		dir := t.TempDir()
		out, logged, err := runRoot(t, writeConfig(t, dir, 0, 1))
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range []string{
			ptmdensity.SummaryFile, LogFileName, ParametersFile, GridFile,
			"polygon_locations.png", "density_plot.png",
			"site_1/density_for_site_1.ncf", "site_1/density_plot_for_site_1.png",
			"site_2/density_for_site_2.ncf",
		} {
			if !exists(filepath.Join(out, f)) {
				t.Errorf("missing %s", f)
			}
		}
		for _, f := range []string{"site_2/density_plot_for_site_2.png", "site_1/shapefile"} {
			if exists(filepath.Join(out, f)) {
				t.Errorf("%s should not exist", f)
			}
		}
		if !strings.Contains(logged, "no particles have been counted for site 2") {
			t.Errorf("empty site warning not logged:\n%s", logged)
		}
		log, err := os.ReadFile(filepath.Join(out, LogFileName))
		if err != nil {
			t.Fatal(err)
		}
		if string(log) != logged {
			t.Errorf("log file differs from command output")
		}

		var p Parameters
		if _, err := toml.DecodeFile(filepath.Join(out, ParametersFile), &p); err != nil {
			t.Fatal(err)
		}
		if p.Increments != 5 || !p.KeepPolygonMats || p.BinConvention != "edge" {
			t.Errorf("saved parameters: %+v", p)
		}
	})

	t.Run("keep shapefiles", func(t *testing.T) {
		dir := t.TempDir()
		out, _, err := runRoot(t, writeConfig(t, dir, 1, 0))
		if err != nil {
			t.Fatal(err)
		}
		if !exists(filepath.Join(out, "site_2/shapefile/site_2.shp")) {
			t.Errorf("site 2 shapefile was removed")
		}
		if exists(filepath.Join(out, "site_1/density_for_site_1.ncf")) {
			t.Errorf("site 1 density should not be written")
		}
	})

	t.Run("keep nothing", func(t *testing.T) {
		dir := t.TempDir()
		out, _, err := runRoot(t, writeConfig(t, dir, 0, 0))
		if err != nil {
			t.Fatal(err)
		}
		for _, site := range []string{"site_1", "site_2"} {
			if exists(filepath.Join(out, site)) {
				t.Errorf("%s should be removed", site)
			}
		}
		if !exists(filepath.Join(out, ptmdensity.SummaryFile)) {
			t.Errorf("missing summary")
		}
	})

	t.Run("arguments", func(t *testing.T) {
		if _, _, err := runRoot(t); err == nil {
			t.Errorf("no arguments should fail")
		}
		if _, _, err := runRoot(t, "a.toml", "b.toml"); err == nil {
			t.Errorf("two arguments should fail")
		}
		if _, _, err := runRoot(t, filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Errorf("a missing parameters file should fail")
		}
	})
}

// renderCall records a call to a recordingRenderer.
type renderCall struct {
	path      string
	highlight int
	total     float64
}

type recordingRenderer struct {
	calls []renderCall
}

func (r *recordingRenderer) PolygonOverview(path string, sites []geom.Polygon) error {
	r.calls = append(r.calls, renderCall{path: filepath.Base(path), highlight: -2, total: float64(len(sites))})
	return nil
}

func (r *recordingRenderer) Density(path string, g *ptmdensity.Grid, counts *sparse.DenseArray, sites []geom.Polygon, highlight int) error {
	var total float64
	for _, v := range counts.Elements {
		total += v
	}
	r.calls = append(r.calls, renderCall{path: filepath.Base(path), highlight: highlight, total: total})
	return nil
}

type nullPolygonWriter struct{ sites []int }

func (w *nullPolygonWriter) WriteSitePolygon(path string, site int, p geom.Polygon) error {
	w.sites = append(w.sites, site)
	return nil
}

func TestRunCollaborators(t *testing.T) {
	dir := t.TempDir()
	cfg := readTestConfig(t, "", "empty.toml")
	trajectories, sites := writeInputs(t, dir)
	cfg.Set("ptm_output_file", trajectories)
	cfg.Set("release_sites_file", sites)
	cfg.Set("days_indices", []int{1, 2})
	cfg.Set("months_indices", []int{1})
	cfg.Set("time_indices", []int{1, 2, 3})
	cfg.Set("shape_check", []int{4, 2, 1, 3})
	cfg.Set("fig_lims", []float64{-3.5, -2.5, 53.8, 54.5})
	cfg.Set("keep_polygon_mats", 1)
	p, err := LoadParameters(cfg)
	if err != nil {
		t.Fatal(err)
	}

	logger, hook := test.NewNullLogger()
	r := new(recordingRenderer)
	pw := new(nullPolygonWriter)
	if err := run(logger, p, dir, pw, r); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pw.sites, []int{1, 2}) {
		t.Errorf("polygons written for sites %v", pw.sites)
	}
	want := []renderCall{
		{path: "polygon_locations.png", highlight: -2, total: 2},
		{path: "density_plot_for_site_1.png", highlight: 0, total: 12},
		{path: "density_plot.png", highlight: -1, total: 12},
	}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("have render calls %+v\nwant %+v", r.calls, want)
	}
	if len(hook.AllEntries()) == 0 {
		t.Errorf("nothing was logged")
	}

	t.Run("ambiguous shape", func(t *testing.T) {
		p2 := *p
		p2.ShapeCheck = []int{4, 2, 2, 3}
		r := new(recordingRenderer)
		err := run(logger, &p2, t.TempDir(), pw, r)
		if _, ok := err.(*ptmdensity.ShapeAmbiguityError); !ok {
			t.Errorf("want ShapeAmbiguityError, have %v", err)
		}
		if len(r.calls) != 0 {
			t.Errorf("nothing should be drawn before the shape is resolved")
		}
	})
}
