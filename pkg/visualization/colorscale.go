/*
Copyright 2020 Monlab Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package visualization

// Built-in 11-stop colormaps. GnBu is the sequential default; RdBu is
// used for divergent data, dark red at the negative end through white to
// dark blue.
var colorscales = map[string][]string{
	"GnBu": {
		"rgb(247,252,240)",
		"rgb(229,245,224)",
		"rgb(211,238,211)",
		"rgb(188,228,200)",
		"rgb(155,217,202)",
		"rgb(123,204,196)",
		"rgb(94,187,205)",
		"rgb(67,162,202)",
		"rgb(35,132,189)",
		"rgb(11,105,176)",
		"rgb(8,64,129)",
	},
	"RdBu": {
		"rgb(103,0,31)",
		"rgb(178,24,43)",
		"rgb(214,96,77)",
		"rgb(244,165,130)",
		"rgb(253,219,199)",
		"rgb(247,247,247)",
		"rgb(209,229,240)",
		"rgb(146,197,222)",
		"rgb(67,147,195)",
		"rgb(33,102,172)",
		"rgb(5,48,97)",
	},
}

// maxDivergenceRatio bounds how lopsided a [min, max] straddling zero can
// be while still counting as divergent.
const maxDivergenceRatio = 5.0

// isDivergent reports whether the data range straddles zero with the two
// sides within a factor of maxDivergenceRatio of each other.
func isDivergent(min, max float64) bool {
	if !(min < 0 && 0 < max) {
		return false
	}
	ratio := -min / max
	return ratio >= 1/maxDivergenceRatio && ratio <= maxDivergenceRatio
}

// pickColorscale resolves the colormap for the given data range,
// honoring an explicit choice first.
func pickColorscale(name string, min, max float64, divergent bool) []string {
	if name != "" {
		return colorscales[name]
	}
	if divergent || isDivergent(min, max) {
		return colorscales["RdBu"]
	}
	return colorscales["GnBu"]
}

