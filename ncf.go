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
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// ncfVariable is a variable to be written to a NetCDF file.
type ncfVariable struct {
	name        string
	dims        []string
	description string
	data        *sparse.DenseArray
}

// vector returns a rank-1 array holding v.
func vector(v []float64) *sparse.DenseArray {
	a := sparse.ZerosDense(len(v))
	copy(a.Elements, v)
	return a
}

// intVector returns a rank-1 array holding v.
func intVector(v []int) *sparse.DenseArray {
	a := sparse.ZerosDense(len(v))
	for i, x := range v {
		a.Elements[i] = float64(x)
	}
	return a
}

// dimNames returns a name for each dimension of a, built from prefix.
func dimNames(prefix string, a *sparse.DenseArray) []string {
	o := make([]string, len(a.Shape))
	for i := range o {
		o[i] = fmt.Sprintf("%s_%d", prefix, i)
	}
	return o
}

// scalar returns a length-1 array holding v.
func scalar(v float64) *sparse.DenseArray { return vector([]float64{v}) }

// createNCF writes the given global attributes and variables to w.
// Dimensions are shared between variables by name and must have the
// same length everywhere they are used.
func createNCF(w *os.File, comment string, attrs map[string]interface{}, vars []ncfVariable) error {
	var dimNames []string
	dimLengths := make(map[string]int)
	for _, v := range vars {
		if len(v.dims) != len(v.data.Shape) {
			return fmt.Errorf("ptmdensity: variable %s has %d dimension names but rank %d",
				v.name, len(v.dims), len(v.data.Shape))
		}
		for i, d := range v.dims {
			n := v.data.Shape[i]
			if n == 0 {
				return fmt.Errorf("ptmdensity: variable %s has a zero-length dimension %s", v.name, d)
			}
			if l, ok := dimLengths[d]; ok {
				if l != n {
					return fmt.Errorf("ptmdensity: dimension %s has length %d for variable %s but %d elsewhere",
						d, n, v.name, l)
				}
				continue
			}
			dimLengths[d] = n
			dimNames = append(dimNames, d)
		}
	}
	lengths := make([]int, len(dimNames))
	for i, d := range dimNames {
		lengths[i] = dimLengths[d]
	}

	h := cdf.NewHeader(dimNames, lengths)
	h.AddAttribute("", "comment", comment)

	// Sort the names so they write in the same order every time.
	names := make([]string, 0, len(attrs))
	for n := range attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		h.AddAttribute("", n, attrs[n])
	}

	for _, v := range vars {
		h.AddVariable(v.name, v.dims, []float64{0})
		if v.description != "" {
			h.AddAttribute(v.name, "description", v.description)
		}
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	for _, v := range vars {
		if err = writeNCF(f, v.name, v.data); err != nil {
			return fmt.Errorf("ptmdensity: writing variable %s to netcdf file: %v", v.name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// writeNCF writes the full extent of variable Var.
func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data.Elements)
	return err
}

// hasVariable reports whether the file has a variable called name.
func hasVariable(f *cdf.File, name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// readNCF reads the whole of variable name from f, converting
// the stored values to float64.
func readNCF(f *cdf.File, name string) (*sparse.DenseArray, error) {
	if !hasVariable(f, name) {
		return nil, fmt.Errorf("variable %s not in file", name)
	}
	dims := f.Header.Lengths(name)
	if len(dims) == 0 {
		dims = []int{1}
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, err
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int8:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []uint8:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", name, buf)
	}
	return data, nil
}
