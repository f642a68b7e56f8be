package suitability

import (
	"encoding/json"
	"sort"

	"github.com/paulmach/orb"
)

// Auxiliary raw-data keys carried next to the parameter values.
const (
	auxNDVI             = "ndvi"
	auxRed              = "red"
	auxNIR              = "nir"
	auxSWIR1            = "swir1"
	auxSWIR2            = "swir2"
	auxPowerLineDetails = "powerLineDetails"
)

// NearestPowerLine describes the closest transmission line found.
type NearestPowerLine struct {
	Coordinates orb.Point `json:"coordinates"`
	Voltage     string    `json:"voltage"`
}

// PowerLineDetails records how the proximityToLines value was obtained.
type PowerLineDetails struct {
	AerialDistance   float64           `json:"aerialDistance"`
	RoadDistance     *float64          `json:"roadDistance"`
	NearestPowerLine *NearestPowerLine `json:"nearestPowerLine"`
}

// SpectralBands holds the mean surface reflectances reported with NDVI.
type SpectralBands struct {
	Red   *float64 `json:"red,omitempty"`
	NIR   *float64 `json:"nir,omitempty"`
	SWIR1 *float64 `json:"swir1,omitempty"`
	SWIR2 *float64 `json:"swir2,omitempty"`
}

// RawParameterData is the raw value record for one geometry. A key absent
// from Values is a missing value. Methods never mutate the receiver; With
// and friends return modified copies.
//
// JSON form is a flat object: parameter keys, ndvi, the band keys and
// powerLineDetails side by side, with null for missing values.
type RawParameterData struct {
	Values           map[ParameterKey]float64
	NDVI             *float64
	Bands            SpectralBands
	PowerLineDetails *PowerLineDetails
}

// NewRawParameterData builds a record from a key/value map.
func NewRawParameterData(values map[ParameterKey]float64) RawParameterData {
	r := RawParameterData{Values: make(map[ParameterKey]float64, len(values))}
	for k, v := range values {
		r.Values[k] = v
	}
	return r
}

// Value returns the raw value for key.
func (r RawParameterData) Value(key ParameterKey) (float64, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Has reports whether key has a value.
func (r RawParameterData) Has(key ParameterKey) bool {
	_, ok := r.Values[key]
	return ok
}

// Clone returns a deep copy.
func (r RawParameterData) Clone() RawParameterData {
	out := NewRawParameterData(r.Values)
	out.NDVI = copyFloat(r.NDVI)
	out.Bands = SpectralBands{
		Red:   copyFloat(r.Bands.Red),
		NIR:   copyFloat(r.Bands.NIR),
		SWIR1: copyFloat(r.Bands.SWIR1),
		SWIR2: copyFloat(r.Bands.SWIR2),
	}
	if r.PowerLineDetails != nil {
		d := *r.PowerLineDetails
		d.RoadDistance = copyFloat(r.PowerLineDetails.RoadDistance)
		if r.PowerLineDetails.NearestPowerLine != nil {
			n := *r.PowerLineDetails.NearestPowerLine
			d.NearestPowerLine = &n
		}
		out.PowerLineDetails = &d
	}
	return out
}

// With returns a copy with key set to v.
func (r RawParameterData) With(key ParameterKey, v float64) RawParameterData {
	out := r.Clone()
	out.Values[key] = v
	return out
}

// Without returns a copy with key removed.
func (r RawParameterData) Without(key ParameterKey) RawParameterData {
	out := r.Clone()
	delete(out.Values, key)
	return out
}

// WithNDVI returns a copy with the vegetation index set.
func (r RawParameterData) WithNDVI(ndvi float64) RawParameterData {
	out := r.Clone()
	out.NDVI = &ndvi
	return out
}

// WithPowerLineDetails returns a copy carrying d.
func (r RawParameterData) WithPowerLineDetails(d PowerLineDetails) RawParameterData {
	out := r.Clone()
	out.PowerLineDetails = &d
	return out
}

// Keys returns the keys with values, sorted.
func (r RawParameterData) Keys() []ParameterKey {
	keys := make([]ParameterKey, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MarshalJSON writes the flat object form.
func (r RawParameterData) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Values)+6)
	for k, v := range r.Values {
		m[string(k)] = v
	}
	m[auxNDVI] = r.NDVI
	if r.Bands.Red != nil {
		m[auxRed] = r.Bands.Red
	}
	if r.Bands.NIR != nil {
		m[auxNIR] = r.Bands.NIR
	}
	if r.Bands.SWIR1 != nil {
		m[auxSWIR1] = r.Bands.SWIR1
	}
	if r.Bands.SWIR2 != nil {
		m[auxSWIR2] = r.Bands.SWIR2
	}
	if r.PowerLineDetails != nil {
		m[auxPowerLineDetails] = r.PowerLineDetails
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the flat object form. Null and non-numeric values are
// treated as missing.
func (r *RawParameterData) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	out := RawParameterData{Values: make(map[ParameterKey]float64, len(fields))}
	for k, raw := range fields {
		switch k {
		case auxNDVI:
			out.NDVI = decodeFloat(raw)
		case auxRed:
			out.Bands.Red = decodeFloat(raw)
		case auxNIR:
			out.Bands.NIR = decodeFloat(raw)
		case auxSWIR1:
			out.Bands.SWIR1 = decodeFloat(raw)
		case auxSWIR2:
			out.Bands.SWIR2 = decodeFloat(raw)
		case auxPowerLineDetails:
			if string(raw) == "null" {
				continue
			}
			var d PowerLineDetails
			if err := json.Unmarshal(raw, &d); err != nil {
				return err
			}
			out.PowerLineDetails = &d
		default:
			if v := decodeFloat(raw); v != nil {
				out.Values[ParameterKey(k)] = *v
			}
		}
	}
	*r = out
	return nil
}

func decodeFloat(raw json.RawMessage) *float64 {
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

//Personal.AI order the ending
