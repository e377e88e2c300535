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
	"math"

	"github.com/ctessum/sparse"
)

// Selection holds the 1-based day, month and time-step indices that take
// part in a run. Indices are used in the order given and may repeat.
type Selection struct {
	Days, Months, Times []int
}

// zeroBased converts the 1-based indices in idx to 0-based indices,
// checking that each one refers to an element of an axis of length n.
func zeroBased(ax Axis, idx []int, n int) ([]int, error) {
	if len(idx) == 0 {
		return nil, fmt.Errorf("ptmdensity: no %s indices selected", ax)
	}
	o := make([]int, len(idx))
	for i, v := range idx {
		if v < 1 || v > n {
			return nil, &IndexError{Axis: ax.String(), Index: v, Len: n}
		}
		o[i] = v - 1
	}
	return o, nil
}

// Apply returns a new canonical array holding the selected slices of
// the canonical array a for every particle. Zero entries, which mark
// positions that were never occupied, are recoded to NaN.
func (s Selection) Apply(a *sparse.DenseArray) (*sparse.DenseArray, error) {
	if len(a.Shape) != 4 {
		return nil, fmt.Errorf("ptmdensity: selection needs a rank-4 array but got rank %d", len(a.Shape))
	}
	np, nd, nm, nt := a.Shape[0], a.Shape[1], a.Shape[2], a.Shape[3]
	days, err := zeroBased(DayAxis, s.Days, nd)
	if err != nil {
		return nil, err
	}
	months, err := zeroBased(MonthAxis, s.Months, nm)
	if err != nil {
		return nil, err
	}
	times, err := zeroBased(TimeAxis, s.Times, nt)
	if err != nil {
		return nil, err
	}

	o := sparse.ZerosDense(np, len(days), len(months), len(times))
	i := 0
	for p := 0; p < np; p++ {
		for _, d := range days {
			for _, m := range months {
				base := ((p*nd+d)*nm + m) * nt
				for _, t := range times {
					v := a.Elements[base+t]
					if v == 0 {
						v = math.NaN()
					}
					o.Elements[i] = v
					i++
				}
			}
		}
	}
	return o, nil
}

// Samples returns the number of selected samples per particle.
func (s Selection) Samples() int {
	return len(s.Days) * len(s.Months) * len(s.Times)
}
