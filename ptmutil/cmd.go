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

// Package ptmutil holds the command-line interface and run configuration
// of ptmdensity.
package ptmutil

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/ptmdensity"
	"github.com/spf13/cobra"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage string
	defaultVal  interface{}
}

func init() {
	// Options are the configuration options available to ptmdensity.
	options = []struct {
		name, usage string
		defaultVal  interface{}
	}{
		{
			name: "config",
			usage: `
              config specifies the parameters file location. It is set
              from the positional command-line argument.`,
			defaultVal: "",
		},
		{
			name: "ptm_output_file",
			usage: `
              ptm_output_file is the path to the particle tracking model output
              holding the particle trajectories. It can include environment variables.`,
			defaultVal: "",
		},
		{
			name: "release_sites_file",
			usage: `
              release_sites_file is the path to the file describing the release
              sites. It can include environment variables.`,
			defaultVal: "",
		},
		{
			name: "days_indices",
			usage: `
              days_indices are the 1-based day indices to include.`,
			defaultVal: []int{},
		},
		{
			name: "months_indices",
			usage: `
              months_indices are the 1-based month indices to include.`,
			defaultVal: []int{},
		},
		{
			name: "time_indices",
			usage: `
              time_indices are the 1-based time-step indices to include.`,
			defaultVal: []int{},
		},
		{
			name: "shape_check",
			usage: `
              shape_check holds the expected sizes of the particle, day, month,
              and time-step axes of the trajectories. It is only used to tell
              which axis is missing from 3-dimensional trajectories: a day size
              of 1 means the day axis is missing, otherwise a month size of 1
              means the month axis is missing.`,
			defaultVal: []int{},
		},
		{
			name: "fig_lims",
			usage: `
              fig_lims are the minimum longitude, maximum longitude, minimum latitude,
              and maximum latitude of the plotted area.`,
			defaultVal: []float64{},
		},
		{
			name: "dpi",
			usage: `
              dpi is the resolution of the output images.`,
			defaultVal: 300,
		},
		{
			name: "keep_polygon_shapefiles",
			usage: `
              keep_polygon_shapefiles specifies whether (1) or not (0) the release site
              polygon shapefiles are kept after plotting.`,
			defaultVal: 0,
		},
		{
			name: "keep_polygon_mats",
			usage: `
              keep_polygon_mats specifies whether (1) or not (0) the density matrix and
              plot for each site are saved.`,
			defaultVal: 0,
		},
		{
			name: "increments",
			usage: `
              increments is the number of grid cells along each of the latitude
              and longitude axes.`,
			defaultVal: 100,
		},
		{
			name: "output_dir",
			usage: `
              output_dir is the directory each run creates its timestamped output
              directory in. It can include environment variables.`,
			defaultVal: "../output",
		},
		{
			name: "coastline_file",
			usage: `
              coastline_file is the path to a polygon shapefile drawn underneath
              the density maps. No basemap is drawn if it is empty.`,
			defaultVal: "",
		},
		{
			name: "site_proj",
			usage: `
              site_proj is the spatial reference of the release site polygon
              coordinates.`,
			defaultVal: ptmdensity.DefaultSiteProj,
		},
		{
			name: "bin_convention",
			usage: `
              bin_convention specifies how positions are assigned to grid cells.
              "edge" treats the grid points as the lower cell edges and counts every
              position within the grid extent. "centered" treats the grid points as
              cell centers, so positions in the upper half of the last cell are not counted.`,
			defaultVal: ptmdensity.EdgeBins.String(),
		},
		{
			name: "log_file",
			usage: `
              log_file is the path to the desired logfile location. It can include
              environment variables. If it is left blank, the log is saved as
              plot_density.log in the output directory.`,
			defaultVal: "",
		},
		{
			name: "workers",
			usage: `
              workers is the number of particles counted in parallel. If it is 0,
              the number of processors is used.`,
			defaultVal: 0,
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PTMDENSITY")
	Cfg.AutomaticEnv()

	for _, option := range options {
		Cfg.SetDefault(option.name, option.defaultVal)
	}
	Root.Long += "\n" + optionDocs()
}

// setConfig reads in the parameters file. Files without an extension
// viper recognizes are read as TOML.
func setConfig() error {
	cfgpath := Cfg.GetString("config")
	if cfgpath == "" {
		return fmt.Errorf("ptmdensity: no parameters file specified")
	}
	Cfg.SetConfigFile(cfgpath)
	if !supportedExt(filepath.Ext(cfgpath)) {
		Cfg.SetConfigType("toml")
	}
	if err := Cfg.ReadInConfig(); err != nil {
		return fmt.Errorf("ptmdensity: problem reading parameters file: %v", err)
	}
	return nil
}

func supportedExt(ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	for _, e := range viper.SupportedExts {
		if e == ext {
			return true
		}
	}
	return false
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ptmdensity parameters-file",
	Short: "Calculate particle densities from particle tracking model output.",
	Long: `ptmdensity bins the positions of particles released from a set of sites
onto a latitude-longitude grid and saves density matrices, maps, and site
shapefiles to a new timestamped directory.

The only argument is the path to the parameters file. The options below can be
set in the parameters file or by setting environment variables in the format
'PTMDENSITY_var' where 'var' is the name of the option in upper case.
Refer to https://github.com/spf13/viper for additional configuration information.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		Cfg.Set("config", args[0])
		if err := setConfig(); err != nil {
			return err
		}
		p, err := LoadParameters(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd, p)
	},
}

// optionDocs documents the options other than config.
func optionDocs() string {
	var b strings.Builder
	for _, option := range options {
		if option.name == "config" {
			continue
		}
		fmt.Fprintf(&b, "%s (default %v):%s\n\n", option.name, option.defaultVal, option.usage)
	}
	return b.String()
}
