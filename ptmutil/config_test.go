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
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lnashier/viper"
)

const testConfig = `ptm_output_file = "$PTMTEST_DIR/ptm.ncf"
release_sites_file = "sites.ncf"
days_indices = [1, 2]
months_indices = [1]
time_indices = [1, 2, 3]
shape_check = [4, 2, 1, 3]
fig_lims = [-3.5, -2.5, 53.8, 54.5]
dpi = 50
keep_polygon_shapefiles = 0
keep_polygon_mats = 1
increments = 10
`

// newCfg returns a configuration holding the default option values.
func newCfg() *viper.Viper {
	cfg := viper.New()
	for _, option := range options {
		cfg.SetDefault(option.name, option.defaultVal)
	}
	return cfg
}

func readTestConfig(t *testing.T, contents, name string) *viper.Viper {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := newCfg()
	cfg.SetConfigFile(path)
	cfg.SetConfigType("toml")
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestLoadParameters(t *testing.T) {
	os.Setenv("PTMTEST_DIR", "/data")
	defer os.Unsetenv("PTMTEST_DIR")

	p, err := LoadParameters(readTestConfig(t, testConfig, "parameters.toml"))
	if err != nil {
		t.Fatal(err)
	}
	want := &Parameters{
		PTMOutputFile:         "/data/ptm.ncf",
		ReleaseSitesFile:      "sites.ncf",
		DaysIndices:           []int{1, 2},
		MonthsIndices:         []int{1},
		TimeIndices:           []int{1, 2, 3},
		ShapeCheck:            []int{4, 2, 1, 3},
		FigLims:               []float64{-3.5, -2.5, 53.8, 54.5},
		DPI:                   50,
		KeepPolygonShapefiles: false,
		KeepPolygonMats:       true,
		Increments:            10,
		OutputDir:             "../output",
		SiteProj:              "+proj=utm +zone=30 +ellps=WGS84 +units=m +no_defs",
		BinConvention:         "edge",
	}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("have %+v\nwant %+v", p, want)
	}
	sel := p.Selection()
	if !reflect.DeepEqual(sel.Times, []int{1, 2, 3}) {
		t.Errorf("selection: have %+v", sel)
	}
}

func TestLoadParametersErrors(t *testing.T) {
	for _, test := range []struct {
		name  string
		key   string
		value interface{}
	}{
		{name: "no trajectories", key: "ptm_output_file", value: ""},
		{name: "no sites", key: "release_sites_file", value: ""},
		{name: "empty days", key: "days_indices", value: []int{}},
		{name: "short shape_check", key: "shape_check", value: []int{4, 2, 1}},
		{name: "short fig_lims", key: "fig_lims", value: []float64{0, 1, 2}},
		{name: "zero increments", key: "increments", value: 0},
		{name: "negative dpi", key: "dpi", value: -1},
		{name: "negative workers", key: "workers", value: -2},
		{name: "bad flag", key: "keep_polygon_mats", value: 2},
		{name: "bad convention", key: "bin_convention", value: "middle"},
		{name: "bad list", key: "time_indices", value: "[1, a]"},
	} {
		t.Run(test.name, func(t *testing.T) {
			cfg := readTestConfig(t, testConfig, "parameters.toml")
			cfg.Set(test.key, test.value)
			if _, err := LoadParameters(cfg); err == nil {
				t.Errorf("%s = %v should fail", test.key, test.value)
			}
		})
	}
}

func TestToIntSliceE(t *testing.T) {
	for _, test := range []struct {
		in   interface{}
		want []int
	}{
		{in: []interface{}{int64(1), int64(3)}, want: []int{1, 3}},
		{in: "[4, 5]", want: []int{4, 5}},
		{in: []int{7}, want: []int{7}},
		{in: int64(2), want: []int{2}},
	} {
		have, err := toIntSliceE(test.in)
		if err != nil {
			t.Errorf("%#v: %v", test.in, err)
			continue
		}
		if !reflect.DeepEqual(have, test.want) {
			t.Errorf("%#v: have %v, want %v", test.in, have, test.want)
		}
	}
	if _, err := toIntSliceE(map[string]int{}); err == nil {
		t.Errorf("a map should not convert")
	}
}

func TestToFlagE(t *testing.T) {
	for _, test := range []struct {
		in      interface{}
		want    bool
		wantErr bool
	}{
		{in: int64(0), want: false},
		{in: int64(1), want: true},
		{in: "1", want: true},
		{in: true, want: true},
		{in: 3, wantErr: true},
	} {
		have, err := toFlagE(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("%#v: error %v", test.in, err)
		}
		if have != test.want {
			t.Errorf("%#v: have %v, want %v", test.in, have, test.want)
		}
	}
}

func TestSetConfigTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parameters.txt")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("config", path)
	defer Cfg.Set("config", "")
	if err := setConfig(); err != nil {
		t.Fatal(err)
	}
	if v := Cfg.GetInt("increments"); v != 10 {
		t.Errorf("increments: have %d, want 10", v)
	}
}
