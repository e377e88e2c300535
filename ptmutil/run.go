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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/ptmdensity"
	"github.com/spatialmodel/ptmdensity/internal/densitymap"
	"github.com/spatialmodel/ptmdensity/internal/hash"
	"github.com/spatialmodel/ptmdensity/internal/shapes"
	"github.com/spf13/cobra"
)

const (
	// dirFormat is the time layout of output directory names.
	dirFormat = "2006-01-02T1504"

	// LogFileName is the name of the run log if no other is given.
	LogFileName = "plot_density.log"

	// ParametersFile is the name the resolved parameters are saved as.
	ParametersFile = "parameters.toml"

	// GridFile is the name of the all-sites density shapefile.
	GridFile = "density_grid.shp"
)

// OutputDir returns the directory a run started at t writes to.
func OutputDir(base string, t time.Time) string {
	return filepath.Join(base, t.Format(dirFormat)+"_plot_density")
}

// checkLogFile returns the default log location in outputDir if
// logFile is empty.
func checkLogFile(logFile, outputDir string) string {
	if logFile == "" {
		logFile = filepath.Join(outputDir, LogFileName)
	}
	return logFile
}

// Run calculates particle densities as specified by p and writes the
// results to a new directory in p.OutputDir.
func Run(cmd *cobra.Command, p *Parameters) error {
	startTime := time.Now()

	outputDir := OutputDir(p.OutputDir, startTime)
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return fmt.Errorf("ptmdensity: creating output directory: %v", err)
	}
	logfile, err := os.Create(checkLogFile(p.LogFile, outputDir))
	if err != nil {
		return fmt.Errorf("ptmdensity: problem creating log file: %v", err)
	}
	defer logfile.Close()

	log := logrus.New()
	log.Out = io.MultiWriter(cmd.OutOrStdout(), logfile)
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true, DisableColors: true}
	log.WithField("output_dir", outputDir).Info("ptmdensity started")

	r, err := densitymap.New(p.FigLims, p.DPI, p.CoastlineFile, shapes.NewCache(4))
	if err != nil {
		return err
	}
	if err = run(log, p, outputDir, shapes.Writer{}, r); err != nil {
		return err
	}

	elapsedTime := time.Since(startTime)
	log.WithFields(logrus.Fields{
		"completed": time.Now().Format("2006-01-02_15:04:05"),
		"seconds":   fmt.Sprintf("%.2f", elapsedTime.Seconds()),
		"duration":  elapsedTime.String(),
	}).Info("ptmdensity finished")
	return nil
}

func readTrajectories(path string) (*ptmdensity.TrajectoryBundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ptmdensity: opening trajectory file: %v", err)
	}
	defer f.Close()
	return ptmdensity.ReadTrajectoryBundle(f)
}

func readSites(path string) (*ptmdensity.ReleaseSites, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ptmdensity: opening release sites file: %v", err)
	}
	defer f.Close()
	return ptmdensity.ReadReleaseSites(f)
}

// logParameters logs a summary of the parameters and inputs.
func logParameters(log logrus.FieldLogger, p *Parameters, b *ptmdensity.TrajectoryBundle, s *ptmdensity.ReleaseSites) {
	log.WithFields(logrus.Fields{
		"ptm_output_file":         p.PTMOutputFile,
		"release_sites_file":      p.ReleaseSitesFile,
		"days_indices":            p.DaysIndices,
		"months_indices":          p.MonthsIndices,
		"time_indices":            p.TimeIndices,
		"shape_check":             p.ShapeCheck,
		"fig_lims":                p.FigLims,
		"dpi":                     p.DPI,
		"keep_polygon_shapefiles": p.KeepPolygonShapefiles,
		"keep_polygon_mats":       p.KeepPolygonMats,
		"increments":              p.Increments,
		"bin_convention":          p.BinConvention,
	}).Info("parameters")
	log.WithFields(logrus.Fields{
		"xstart":  b.XStart.Elements,
		"ystart":  b.YStart.Elements,
		"nmonth":  b.MSave.Elements,
		"ndays":   b.DSave.Elements,
		"DT":      b.DT.Elements,
		"pld":     b.PLD.Elements,
		"latsave": b.Lat.Shape,
		"lonsave": b.Lon.Shape,
	}).Info("trajectories")
	log.WithFields(logrus.Fields{
		"ns":   s.NS(),
		"nrel": s.NRel,
		"plat": s.PLat,
		"plon": s.PLon,
		"xc":   s.XC,
		"yc":   s.YC,
		"r":    s.R,
		"s_xc": s.SXC.Shape,
		"s_yc": s.SYC.Shape,
	}).Info("release sites")
}

func siteShapefile(w *ptmdensity.ReportWriter, site int) string {
	return filepath.Join(w.SiteDir(site), "shapefile", fmt.Sprintf("site_%d.shp", site))
}

// run carries out the calculation, saving files to outputDir.
func run(log logrus.FieldLogger, p *Parameters, outputDir string, pw ptmdensity.PolygonWriter, r ptmdensity.Renderer) error {
	b, err := readTrajectories(p.PTMOutputFile)
	if err != nil {
		return err
	}
	s, err := readSites(p.ReleaseSitesFile)
	if err != nil {
		return err
	}
	logParameters(log, p, b, s)

	conv, err := ptmdensity.ParseBinConvention(p.BinConvention)
	if err != nil {
		return err
	}
	sel := p.Selection()
	t, err := b.Trajectories(p.ShapeCheck, sel)
	if err != nil {
		return err
	}

	polys, err := s.Polygons(p.SiteProj)
	if err != nil {
		return err
	}
	w := &ptmdensity.ReportWriter{Dir: outputDir, KeepSiteData: p.KeepPolygonMats}
	for i, poly := range polys {
		if err := pw.WriteSitePolygon(siteShapefile(w, i+1), i+1, poly); err != nil {
			return err
		}
	}
	if err := r.PolygonOverview(filepath.Join(outputDir, "polygon_locations.png"), polys); err != nil {
		return err
	}

	g, err := ptmdensity.NewGrid(t.Lat, t.Lon, p.Increments, conv)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"lat_min":       g.LatMin,
		"lat_max":       g.LatMax,
		"lon_min":       g.LonMin,
		"lon_max":       g.LonMax,
		"lat_increment": g.LatIncrement,
		"lon_increment": g.LonIncrement,
	}).Info("created grid")

	d, err := ptmdensity.Aggregate(t, g, s.NS(), s.NRel,
		ptmdensity.Workers(p.Workers), ptmdensity.Log(log))
	if err != nil {
		return err
	}

	sums := make([]float64, len(d.Sites))
	for i, site := range d.Sites {
		sums[i] = site.SumCheck
		if err := w.WriteSite(site); err != nil {
			return err
		}
		if !p.KeepPolygonMats || site.Empty {
			continue
		}
		path := filepath.Join(w.SiteDir(site.Site), fmt.Sprintf("density_plot_for_site_%d.png", site.Site))
		if err := r.Density(path, g, site.Counts, polys, i); err != nil {
			return err
		}
	}
	log.WithFields(logrus.Fields{
		"min":  stats.StatsMin(sums),
		"max":  stats.StatsMax(sums),
		"mean": stats.StatsMean(sums),
	}).Info("site totals")

	if err := r.Density(filepath.Join(outputDir, "density_plot.png"), g, d.All, polys, -1); err != nil {
		return err
	}
	m := &ptmdensity.Metadata{
		Selection:     sel,
		Trajectory:    b,
		Sites:         s,
		ParameterHash: hash.Hash(p),
	}
	if err := w.WriteSummary(d, m); err != nil {
		return err
	}
	if err := shapes.WriteGrid(filepath.Join(outputDir, GridFile), g, d.All); err != nil {
		return err
	}
	if err := writeParameters(filepath.Join(outputDir, ParametersFile), p); err != nil {
		return err
	}
	return cleanup(w, s.NS(), p)
}

func writeParameters(path string, p *Parameters) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ptmdensity: creating parameters file: %v", err)
	}
	if err := toml.NewEncoder(f).Encode(p); err != nil {
		f.Close()
		return fmt.Errorf("ptmdensity: writing parameters file: %v", err)
	}
	return f.Close()
}

// cleanup removes the site files the keep flags exclude.
func cleanup(w *ptmdensity.ReportWriter, ns int, p *Parameters) error {
	for site := 1; site <= ns; site++ {
		dir := filepath.Dir(siteShapefile(w, site))
		if !p.KeepPolygonMats && !p.KeepPolygonShapefiles {
			dir = w.SiteDir(site)
		} else if p.KeepPolygonShapefiles {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("ptmdensity: removing %s: %v", dir, err)
		}
	}
	return nil
}
