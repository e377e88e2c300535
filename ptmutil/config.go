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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/ptmdensity"
	"github.com/spf13/cast"
)

// Parameters holds the resolved configuration of a run.
type Parameters struct {
	PTMOutputFile    string `toml:"ptm_output_file"`
	ReleaseSitesFile string `toml:"release_sites_file"`

	DaysIndices   []int `toml:"days_indices"`
	MonthsIndices []int `toml:"months_indices"`
	TimeIndices   []int `toml:"time_indices"`

	ShapeCheck []int     `toml:"shape_check"`
	FigLims    []float64 `toml:"fig_lims"`
	DPI        int       `toml:"dpi"`

	KeepPolygonShapefiles bool `toml:"keep_polygon_shapefiles"`
	KeepPolygonMats       bool `toml:"keep_polygon_mats"`

	Increments    int    `toml:"increments"`
	OutputDir     string `toml:"output_dir"`
	CoastlineFile string `toml:"coastline_file"`
	SiteProj      string `toml:"site_proj"`
	BinConvention string `toml:"bin_convention"`
	LogFile       string `toml:"log_file"`
	Workers       int    `toml:"workers"`
}

// Selection returns the trajectory samples the parameters select.
func (p *Parameters) Selection() ptmdensity.Selection {
	return ptmdensity.Selection{
		Days:   p.DaysIndices,
		Months: p.MonthsIndices,
		Times:  p.TimeIndices,
	}
}

// LoadParameters reads and checks the run parameters held in cfg.
func LoadParameters(cfg *viper.Viper) (*Parameters, error) {
	p := &Parameters{
		PTMOutputFile:    os.ExpandEnv(cfg.GetString("ptm_output_file")),
		ReleaseSitesFile: os.ExpandEnv(cfg.GetString("release_sites_file")),
		OutputDir:        os.ExpandEnv(cfg.GetString("output_dir")),
		CoastlineFile:    os.ExpandEnv(cfg.GetString("coastline_file")),
		LogFile:          os.ExpandEnv(cfg.GetString("log_file")),
		SiteProj:         cfg.GetString("site_proj"),
	}
	if p.PTMOutputFile == "" {
		return nil, fmt.Errorf("ptmdensity: ptm_output_file must be specified")
	}
	if p.ReleaseSitesFile == "" {
		return nil, fmt.Errorf("ptmdensity: release_sites_file must be specified")
	}
	if p.OutputDir == "" {
		return nil, fmt.Errorf("ptmdensity: output_dir must not be empty")
	}

	var err error
	for _, s := range []struct {
		name string
		dst  *[]int
	}{
		{"days_indices", &p.DaysIndices},
		{"months_indices", &p.MonthsIndices},
		{"time_indices", &p.TimeIndices},
		{"shape_check", &p.ShapeCheck},
	} {
		if *s.dst, err = toIntSliceE(cfg.Get(s.name)); err != nil {
			return nil, fmt.Errorf("ptmdensity: reading %s: %v", s.name, err)
		}
	}
	if len(p.DaysIndices) == 0 || len(p.MonthsIndices) == 0 || len(p.TimeIndices) == 0 {
		return nil, fmt.Errorf("ptmdensity: days_indices, months_indices, and time_indices must not be empty")
	}
	if len(p.ShapeCheck) != 4 {
		return nil, fmt.Errorf("ptmdensity: shape_check must have 4 values but has %d", len(p.ShapeCheck))
	}
	if p.FigLims, err = toFloatSliceE(cfg.Get("fig_lims")); err != nil {
		return nil, fmt.Errorf("ptmdensity: reading fig_lims: %v", err)
	}
	if len(p.FigLims) != 4 {
		return nil, fmt.Errorf("ptmdensity: fig_lims must have 4 values but has %d", len(p.FigLims))
	}

	for _, s := range []struct {
		name string
		dst  *int
		min  int
	}{
		{"dpi", &p.DPI, 1},
		{"increments", &p.Increments, 1},
		{"workers", &p.Workers, 0},
	} {
		if *s.dst, err = cast.ToIntE(cfg.Get(s.name)); err != nil {
			return nil, fmt.Errorf("ptmdensity: reading %s: %v", s.name, err)
		}
		if *s.dst < s.min {
			return nil, fmt.Errorf("ptmdensity: %s must be at least %d but is %d", s.name, s.min, *s.dst)
		}
	}

	if p.KeepPolygonShapefiles, err = toFlagE(cfg.Get("keep_polygon_shapefiles")); err != nil {
		return nil, fmt.Errorf("ptmdensity: reading keep_polygon_shapefiles: %v", err)
	}
	if p.KeepPolygonMats, err = toFlagE(cfg.Get("keep_polygon_mats")); err != nil {
		return nil, fmt.Errorf("ptmdensity: reading keep_polygon_mats: %v", err)
	}

	conv, err := ptmdensity.ParseBinConvention(cfg.GetString("bin_convention"))
	if err != nil {
		return nil, err
	}
	p.BinConvention = conv.String()
	return p, nil
}

// toIntSliceE converts s to an int slice. s may be a slice or a
// JSON array, which is how lists set in environment variables arrive.
func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case []int:
		return v, nil
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToIntE(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		var o []int
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &o); err != nil {
			return nil, err
		}
		return o, nil
	case int, int64:
		i, err := cast.ToIntE(v)
		return []int{i}, err
	}
	return nil, fmt.Errorf("unable to convert %#v of type %T to []int", s, s)
}

// toFloatSliceE converts s to a float64 slice in the same way as
// toIntSliceE.
func toFloatSliceE(s interface{}) ([]float64, error) {
	switch v := s.(type) {
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToFloat64E(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		var o []float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &o); err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, fmt.Errorf("unable to convert %#v of type %T to []float64", s, s)
}

// toFlagE converts a 0 or 1 flag to a bool.
func toFlagE(s interface{}) (bool, error) {
	if b, ok := s.(bool); ok {
		return b, nil
	}
	i, err := cast.ToIntE(s)
	if err != nil {
		return false, err
	}
	switch i {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("flag must be 0 or 1 but is %d", i)
}
