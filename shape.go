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

	"github.com/ctessum/sparse"
)

// Axis identifies a dimension of a canonical trajectory array,
// which is laid out as [particle, day, month, time-step].
type Axis int

// The axes of a canonical trajectory array.
const (
	ParticleAxis Axis = iota
	DayAxis
	MonthAxis
	TimeAxis
)

func (a Axis) String() string {
	switch a {
	case ParticleAxis:
		return "particle"
	case DayAxis:
		return "day"
	case MonthAxis:
		return "month"
	case TimeAxis:
		return "time-step"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// ShapeKind is the kind of axis collapse a trajectory array went through.
type ShapeKind int

// Kinds of trajectory shapes.
const (
	// Full4D arrays have all four axes.
	Full4D ShapeKind = iota
	// Collapsed arrays have lost either the day or the month axis.
	Collapsed
	// Collapsed2D arrays have lost both the day and the month axes.
	Collapsed2D
)

// TrajectoryShape describes how a trajectory array on disk relates to
// the canonical [particle, day, month, time-step] layout.
// Axis is only meaningful when Kind is Collapsed.
type TrajectoryShape struct {
	Kind ShapeKind
	Axis Axis
}

func (s TrajectoryShape) String() string {
	switch s.Kind {
	case Full4D:
		return "Full4D"
	case Collapsed:
		return fmt.Sprintf("Collapsed{%s}", s.Axis)
	case Collapsed2D:
		return "Collapsed2D"
	}
	return "invalid"
}

// DetectShape determines the TrajectoryShape of an array with the given
// rank. shapeCheck holds the expected lengths of the four canonical axes;
// it is only consulted for rank-3 arrays, where shapeCheck[1] == 1 marks a
// collapsed day axis and shapeCheck[2] == 1 a collapsed month axis.
func DetectShape(rank int, shapeCheck []int) (TrajectoryShape, error) {
	switch rank {
	case 4:
		return TrajectoryShape{Kind: Full4D}, nil
	case 3:
		if len(shapeCheck) == 4 {
			if shapeCheck[DayAxis] == 1 {
				return TrajectoryShape{Kind: Collapsed, Axis: DayAxis}, nil
			}
			if shapeCheck[MonthAxis] == 1 {
				return TrajectoryShape{Kind: Collapsed, Axis: MonthAxis}, nil
			}
		}
	case 2:
		return TrajectoryShape{Kind: Collapsed2D}, nil
	}
	return TrajectoryShape{}, &ShapeAmbiguityError{Rank: rank, ShapeCheck: shapeCheck}
}

// rank returns the number of dimensions an array of this shape has on disk.
func (s TrajectoryShape) rank() int {
	switch s.Kind {
	case Collapsed:
		return 3
	case Collapsed2D:
		return 2
	}
	return 4
}

// Normalize returns a rank-4 view of a with the collapsed axes reinserted
// with length 1. Element data is shared with a, because inserting unit
// axes does not change row-major order. A Full4D array is returned as is.
func (s TrajectoryShape) Normalize(a *sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(a.Shape) != s.rank() {
		return nil, &ShapeAmbiguityError{Rank: len(a.Shape)}
	}
	var shape []int
	switch s.Kind {
	case Full4D:
		return a, nil
	case Collapsed:
		switch s.Axis {
		case DayAxis:
			shape = []int{a.Shape[0], 1, a.Shape[1], a.Shape[2]}
		case MonthAxis:
			shape = []int{a.Shape[0], a.Shape[1], 1, a.Shape[2]}
		default:
			return nil, &ShapeAmbiguityError{Rank: len(a.Shape)}
		}
	case Collapsed2D:
		shape = []int{a.Shape[0], 1, 1, a.Shape[1]}
	}
	return reshape(a, shape), nil
}

// reshape returns an array with the given shape that shares
// elements with a.
func reshape(a *sparse.DenseArray, shape []int) *sparse.DenseArray {
	o := sparse.ZerosDense(shape...)
	o.Elements = a.Elements
	return o
}
