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

// Command ptmdensity calculates particle densities from particle
// tracking model output.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/ptmdensity/ptmutil"
)

func main() {
	if err := ptmutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
