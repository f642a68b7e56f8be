package suitability

import (
	"strings"

	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// LandOwnership is the caller's ownership selection for a site.
type LandOwnership string

const (
	OwnershipUnspecified LandOwnership = ""
	OwnershipGovernment  LandOwnership = "government"
	OwnershipBarren      LandOwnership = "barren"
	OwnershipPrivate     LandOwnership = "private"
)

// Ownership codes as carried in RawParameterData under landOwnership.
const (
	ownershipCodePublic  = 1
	ownershipCodePrivate = 2
)

// ParseLandOwnership accepts the enum names (case-insensitive) and the
// numeric codes "1" (government/barren) and "2" (private). The empty string
// yields OwnershipUnspecified.
func ParseLandOwnership(s string) (LandOwnership, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return OwnershipUnspecified, nil
	case "government", "gov", "public", "1":
		return OwnershipGovernment, nil
	case "barren":
		return OwnershipBarren, nil
	case "private", "2":
		return OwnershipPrivate, nil
	}
	return OwnershipUnspecified, errors.New(errors.ErrCodeScoringOwnership, "invalid land ownership selection").
		WithDetail(s)
}

// IsPublic reports whether the selection is government or barren land.
func (o LandOwnership) IsPublic() bool {
	return o == OwnershipGovernment || o == OwnershipBarren
}

// Code returns the raw value substituted for landOwnership, and false when
// the selection is unspecified.
func (o LandOwnership) Code() (float64, bool) {
	switch {
	case o.IsPublic():
		return ownershipCodePublic, true
	case o == OwnershipPrivate:
		return ownershipCodePrivate, true
	}
	return 0, false
}

func (o LandOwnership) String() string {
	if o == OwnershipUnspecified {
		return "unspecified"
	}
	return string(o)
}

//Personal.AI order the ending
