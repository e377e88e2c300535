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
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
)

func TestSelectionApply(t *testing.T) {
	// Particle p, day d, month m, time step t holds 1000p+100d+10m+t, except
	// for the first time step of particle 0, which is unoccupied.
	a := sparse.ZerosDense(2, 3, 2, 4)
	for p := 0; p < 2; p++ {
		for d := 0; d < 3; d++ {
			for m := 0; m < 2; m++ {
				for ts := 0; ts < 4; ts++ {
					v := float64(1000*p + 100*d + 10*m + ts)
					a.Set(v, p, d, m, ts)
				}
			}
		}
	}

	s := Selection{Days: []int{3, 1}, Months: []int{2}, Times: []int{1, 4}}
	o, err := s.Apply(a)
	if err != nil {
		t.Fatal(err)
	}
	wantShape := []int{2, 2, 1, 2}
	if !reflect.DeepEqual(o.Shape, wantShape) {
		t.Fatalf("shape: have %v, want %v", o.Shape, wantShape)
	}
	want := []float64{
		210, 213, 10, 13,
		1210, 1213, 1010, 1013,
	}
	for i, v := range o.Elements {
		if v != want[i] {
			t.Errorf("element %d: have %g, want %g", i, v, want[i])
		}
	}
	if s.Samples() != 4 {
		t.Errorf("samples: have %d, want 4", s.Samples())
	}

	t.Run("zeros", func(t *testing.T) {
		o, err := Selection{Days: []int{1}, Months: []int{1}, Times: []int{1, 2}}.Apply(a)
		if err != nil {
			t.Fatal(err)
		}
		if !math.IsNaN(o.Elements[0]) {
			t.Errorf("zero should be recoded to NaN but is %g", o.Elements[0])
		}
		if o.Elements[1] != 1 {
			t.Errorf("have %g, want 1", o.Elements[1])
		}
	})
	t.Run("out of range", func(t *testing.T) {
		_, err := Selection{Days: []int{4}, Months: []int{1}, Times: []int{1}}.Apply(a)
		if e, ok := err.(*IndexError); !ok || e.Axis != "day" {
			t.Errorf("want day IndexError, have %v", err)
		}
		_, err = Selection{Days: []int{1}, Months: []int{1}, Times: []int{0}}.Apply(a)
		if e, ok := err.(*IndexError); !ok || e.Axis != "time-step" {
			t.Errorf("want time-step IndexError, have %v", err)
		}
	})
	t.Run("empty", func(t *testing.T) {
		if _, err := (Selection{Days: []int{1}, Times: []int{1}}).Apply(a); err == nil {
			t.Errorf("an empty month selection should fail")
		}
	})
}
