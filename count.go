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
	"reflect"

	"github.com/ctessum/sparse"
)

// Trajectories holds the selected latitude and longitude samples of
// every particle as canonical [particle, day, month, time-step] arrays.
// It is shared read-only by the counting workers.
type Trajectories struct {
	Lat, Lon *sparse.DenseArray
}

// NewTrajectories checks that lat and lon are canonical arrays of the
// same shape and returns them as Trajectories.
func NewTrajectories(lat, lon *sparse.DenseArray) (*Trajectories, error) {
	if len(lat.Shape) != 4 {
		return nil, fmt.Errorf("ptmdensity: trajectories must have rank 4 but have rank %d", len(lat.Shape))
	}
	if !reflect.DeepEqual(lat.Shape, lon.Shape) {
		return nil, fmt.Errorf("ptmdensity: latitude shape %v does not match longitude shape %v",
			lat.Shape, lon.Shape)
	}
	return &Trajectories{Lat: lat, Lon: lon}, nil
}

// Particles returns the number of particles.
func (t *Trajectories) Particles() int { return t.Lat.Shape[0] }

// samples returns the number of samples held for each particle.
func (t *Trajectories) samples() int {
	return t.Lat.Shape[1] * t.Lat.Shape[2] * t.Lat.Shape[3]
}

// CountParticle returns a density matrix holding the number of samples of
// particle p that fall in each grid cell. Missing samples and samples
// outside the grid are skipped. It is safe to call concurrently.
func (g *Grid) CountParticle(t *Trajectories, p int) (*sparse.DenseArray, error) {
	counts := g.NewMatrix()
	if err := g.countInto(counts, t, p); err != nil {
		return nil, err
	}
	return counts, nil
}

// countInto adds the samples of particle p to counts.
func (g *Grid) countInto(counts *sparse.DenseArray, t *Trajectories, p int) error {
	if p < 0 || p >= t.Particles() {
		return fmt.Errorf("ptmdensity: particle %d is out of range [0, %d)", p, t.Particles())
	}
	// A particle's samples are contiguous in row-major order.
	n := t.samples()
	lats := t.Lat.Elements[p*n : (p+1)*n]
	lons := t.Lon.Elements[p*n : (p+1)*n]
	for i, lat := range lats {
		row, col, ok := g.Bin(lat, lons[i])
		if !ok {
			continue
		}
		counts.Elements[row*g.Increments+col]++
	}
	return nil
}
