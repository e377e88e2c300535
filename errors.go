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

import "fmt"

// ShapeAmbiguityError is returned when the rank of a trajectory array,
// together with the shape check vector, does not identify which axes
// were collapsed when the array was written.
type ShapeAmbiguityError struct {
	Rank       int
	ShapeCheck []int
}

func (e *ShapeAmbiguityError) Error() string {
	return fmt.Sprintf("ptmdensity: there is a potential problem with the shape of "+
		"latsave/lonsave (rank %d, shape_check %v). The size of the particle and "+
		"time-step dimensions is expected to be > 1, and only the day or month "+
		"dimension may have been flattened to a size of 1", e.Rank, e.ShapeCheck)
}

// DegenerateExtentError is returned when a coordinate axis has no
// non-missing samples, so the grid bounds are undefined.
type DegenerateExtentError struct {
	Axis string
}

func (e *DegenerateExtentError) Error() string {
	return fmt.Sprintf("ptmdensity: all selected %s values are missing; "+
		"the grid extent is undefined", e.Axis)
}

// EmptySiteWarning describes a release site for which no particle
// positions fell inside the grid. It is logged, not returned.
type EmptySiteWarning struct {
	Site int
}

func (e EmptySiteWarning) Error() string {
	return fmt.Sprintf("no particles have been counted for site %d", e.Site)
}

// BundleError is returned when an input bundle is missing a required
// field or the field has the wrong layout.
type BundleError struct {
	Bundle, Field string
	Err           error
}

func (e *BundleError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("ptmdensity: reading %s bundle: %v", e.Bundle, e.Err)
	}
	return fmt.Sprintf("ptmdensity: reading %s bundle field %s: %v", e.Bundle, e.Field, e.Err)
}

// SiteLayoutError is returned when the number of particles is not
// the number of sites times the number of particles per site.
type SiteLayoutError struct {
	Particles, NS, NRel int
}

func (e *SiteLayoutError) Error() string {
	return fmt.Sprintf("ptmdensity: %d particles cannot be split into %d sites of %d particles",
		e.Particles, e.NS, e.NRel)
}

// IndexError is returned when a selected 1-based index is outside
// the corresponding trajectory axis.
type IndexError struct {
	Axis       string
	Index, Len int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("ptmdensity: %s index %d is out of range [1, %d]", e.Axis, e.Index, e.Len)
}
