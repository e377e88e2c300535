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

// Package ptmdensity calculates the density of particles from particle
// tracking model trajectories. Particle positions are binned onto a uniform
// latitude-longitude grid, and counts are kept for each release site and
// for all sites together.
package ptmdensity

import (
	"math"
	"runtime"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// SiteResult holds the density matrix of a single release site.
type SiteResult struct {
	// Site is the 1-based site number.
	Site int

	// Counts is the site's density matrix.
	Counts *sparse.DenseArray

	// SumCheck is the total count in Counts.
	SumCheck float64

	// Empty is true if no samples were counted for the site.
	Empty bool
}

// Density is the result of aggregating particle counts over all sites.
type Density struct {
	Grid  *Grid
	Sites []*SiteResult

	// All is the element-wise sum of the site density matrices.
	All *sparse.DenseArray
}

type aggregator struct {
	workers int
	log     logrus.FieldLogger
}

// AggregateOption configures Aggregate.
type AggregateOption func(*aggregator)

// Workers sets the number of counting goroutines used for each site.
// Values < 1 use runtime.GOMAXPROCS(0).
func Workers(n int) AggregateOption {
	return func(a *aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// Log sets the logger progress and warnings are written to.
func Log(l logrus.FieldLogger) AggregateOption {
	return func(a *aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// Aggregate counts the samples of every particle in t on grid g. The
// particles are split into ns release sites of nrel consecutive particles
// each. The sites are processed one after another, and the particles of
// a site are counted by a pool of worker goroutines whose partial
// matrices are summed once the pool has finished. The first error from
// any worker aborts the aggregation.
//
// Sites for which nothing is counted are logged as EmptySiteWarnings
// and marked Empty; they are not an error.
func Aggregate(t *Trajectories, g *Grid, ns, nrel int, opts ...AggregateOption) (*Density, error) {
	a := &aggregator{
		workers: runtime.GOMAXPROCS(0),
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(a)
	}
	if ns < 1 || nrel < 1 || ns*nrel != t.Particles() {
		return nil, &SiteLayoutError{Particles: t.Particles(), NS: ns, NRel: nrel}
	}

	d := &Density{
		Grid:  g,
		Sites: make([]*SiteResult, ns),
		All:   g.NewMatrix(),
	}
	for i := 0; i < ns; i++ {
		site := i + 1
		a.log.WithFields(logrus.Fields{
			"site":      site,
			"particles": nrel,
		}).Info("processing site")

		counts, err := a.site(t, g, i*nrel, nrel)
		if err != nil {
			return nil, err
		}
		floats.Add(d.All.Elements, counts.Elements)

		r := &SiteResult{
			Site:     site,
			Counts:   counts,
			SumCheck: floats.Sum(counts.Elements),
		}
		r.Empty = r.SumCheck == 0
		d.Sites[i] = r

		l := a.log.WithFields(logrus.Fields{
			"site":      site,
			"sum_check": r.SumCheck,
		})
		if r.Empty {
			l.Warn(EmptySiteWarning{Site: site}.Error())
		} else {
			l.Info("counted site")
		}
	}
	return d, nil
}

// site counts particles [first, first+n) with a pool of workers.
func (a *aggregator) site(t *Trajectories, g *Grid, first, n int) (*sparse.DenseArray, error) {
	nworkers := a.workers
	if nworkers > n {
		nworkers = n
	}
	type result struct {
		partial *sparse.DenseArray
		err     error
	}
	jobChan := make(chan int, n)
	resultChan := make(chan result)
	for w := 0; w < nworkers; w++ {
		go func() {
			r := result{partial: g.NewMatrix()}
			for p := range jobChan {
				if r.err != nil {
					continue // Drain the remaining jobs.
				}
				r.err = g.countInto(r.partial, t, p)
			}
			resultChan <- r
		}()
	}
	for p := first; p < first+n; p++ {
		jobChan <- p
	}
	close(jobChan)

	partials := make([]*sparse.DenseArray, 0, nworkers)
	var err error
	for w := 0; w < nworkers; w++ {
		r := <-resultChan
		if r.err != nil && err == nil {
			err = r.err
		}
		partials = append(partials, r.partial)
	}
	if err != nil {
		return nil, err
	}

	// All workers have finished.
	counts := g.NewMatrix()
	for _, partial := range partials {
		nanAdd(counts.Elements, partial.Elements)
	}
	return counts, nil
}

// nanAdd adds s to dst element-wise, treating NaN values in s as zero.
func nanAdd(dst, s []float64) {
	for i, v := range s {
		if !math.IsNaN(v) {
			dst[i] += v
		}
	}
}
