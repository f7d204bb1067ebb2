package renderer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTonemapping is returned by ParseTonemappingMode for an unknown operator name.
var ErrUnknownTonemapping = errors.New("renderer: unknown tonemapping mode")

// TonemappingMode selects the operator of the tonemap pass. The values match the TONEMAP_
// constants of the tonemap shader module.
type TonemappingMode uint8

const (
	TonemappingNone TonemappingMode = iota
	TonemappingExponential
	TonemappingReinhard
	TonemappingReinhardLum
	TonemappingHable
	TonemappingDuiker
	TonemappingACES
	TonemappingACESLum
)

var tonemappingNames = [...]string{
	TonemappingNone:        "none",
	TonemappingExponential: "exponential",
	TonemappingReinhard:    "reinhard",
	TonemappingReinhardLum: "reinhard_lum",
	TonemappingHable:       "hable",
	TonemappingDuiker:      "duiker",
	TonemappingACES:        "aces",
	TonemappingACESLum:     "aces_lum",
}

func (m TonemappingMode) String() string {
	if int(m) < len(tonemappingNames) {
		return tonemappingNames[m]
	}
	return fmt.Sprintf("TonemappingMode(%d)", m)
}

// ParseTonemappingMode maps a config name to a TonemappingMode. Matching ignores case.
//
// Parameters:
//   - name: one of none, exponential, reinhard, reinhard_lum, hable, duiker, aces, aces_lum
//
// Returns:
//   - TonemappingMode: the operator
//   - error: ErrUnknownTonemapping for any other name
func ParseTonemappingMode(name string) (TonemappingMode, error) {
	for i, n := range tonemappingNames {
		if strings.EqualFold(n, name) {
			return TonemappingMode(i), nil
		}
	}
	return TonemappingNone, fmt.Errorf("%w: %q", ErrUnknownTonemapping, name)
}
