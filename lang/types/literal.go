// Mgmt
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

package types

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	// DateTypeName is the wire tag of a date literal.
	DateTypeName = "Date"

	// BytesTypeName is the wire tag of an opaque bytes literal.
	BytesTypeName = "Bytes"
)

// geometryTypeNames is the list of wire tags which are geometry literals. These
// are passed through verbatim.
var geometryTypeNames = []string{
	"Point",
	"MultiPoint",
	"LineString",
	"LinearRing",
	"MultiLineString",
	"Polygon",
	"MultiPolygon",
	"GeometryCollection",
}

// IsGeometryType returns true if the wire tag names a geometry literal.
func IsGeometryType(name string) bool {
	for _, x := range geometryTypeNames {
		if x == name {
			return true
		}
	}
	return false
}

// Null is an explicit null value. A nil interface{} in an argument mapping
// means that the argument was not given at all, where as this value is sent
// on the wire as a JSON null.
type Null struct{}

// String returns a visual representation of this value.
func (obj Null) String() string { return "null" }

// Date is a point in time, stored with microsecond precision, which is the
// precision of the wire format.
type Date struct {
	micros int64
}

// NewDate builds a date from a golang time.
func NewDate(t time.Time) *Date {
	return &Date{micros: t.UnixMicro()}
}

// DateFromMillis builds a date from milliseconds since the unix epoch.
func DateFromMillis(ms int64) *Date {
	return &Date{micros: ms * 1000}
}

// DateFromMicros builds a date from microseconds since the unix epoch.
func DateFromMicros(us int64) *Date {
	return &Date{micros: us}
}

// DateFromNumber builds a date from the numeric microseconds value found in a
// decoded wire node.
func DateFromNumber(v interface{}) (*Date, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return DateFromMicros(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("date value `%s` is not a number", x.String())
		}
		return DateFromMicros(int64(math.Round(f))), nil
	case float64:
		return DateFromMicros(int64(math.Round(x))), nil
	case int64:
		return DateFromMicros(x), nil
	case int:
		return DateFromMicros(int64(x)), nil
	}
	return nil, fmt.Errorf("date value of %T is not a number", v)
}

// Micros returns the microseconds since the unix epoch.
func (obj *Date) Micros() int64 { return obj.micros }

// Millis returns the milliseconds since the unix epoch. This is the
// representation used by the date capability on the client side.
func (obj *Date) Millis() float64 { return float64(obj.micros) / 1000 }

// Time returns the golang time of this date in UTC.
func (obj *Date) Time() time.Time { return time.UnixMicro(obj.micros).UTC() }

// String returns a visual representation of this value.
func (obj *Date) String() string { return obj.Time().Format(time.RFC3339Nano) }

// Node returns the legacy wire node of this date.
func (obj *Date) Node() map[string]interface{} {
	return map[string]interface{}{
		"type":  DateTypeName,
		"value": obj.micros,
	}
}

// Bytes is an opaque bytes literal. The raw node is kept so that it can be
// reproduced verbatim.
type Bytes struct {
	Raw map[string]interface{}
}

// NewBytes builds a bytes literal from some data. The data is stored base64
// encoded in the value field.
func NewBytes(data []byte) *Bytes {
	return &Bytes{
		Raw: map[string]interface{}{
			"type":  BytesTypeName,
			"value": base64.StdEncoding.EncodeToString(data),
		},
	}
}

// Value returns the base64 encoded payload if one is present.
func (obj *Bytes) Value() (string, error) {
	s, ok := obj.Raw["value"].(string)
	if !ok {
		return "", fmt.Errorf("bytes node has no string value")
	}
	return s, nil
}

// String returns a visual representation of this value.
func (obj *Bytes) String() string { return "bytes" }

// Node returns the legacy wire node of this literal.
func (obj *Bytes) Node() map[string]interface{} { return copyMap(obj.Raw) }

// Geometry is a geometry literal such as a Point or a Polygon. The raw node is
// kept so that it can be reproduced verbatim.
type Geometry struct {
	Raw map[string]interface{}
}

// NewGeometry builds a geometry literal from a raw node. The type field must
// name one of the known geometry types.
func NewGeometry(raw map[string]interface{}) (*Geometry, error) {
	typ, ok := raw["type"].(string)
	if !ok {
		return nil, fmt.Errorf("geometry has no type")
	}
	if !IsGeometryType(typ) {
		return nil, fmt.Errorf("unknown geometry type: %s", typ)
	}
	return &Geometry{Raw: copyMap(raw)}, nil
}

// Type returns the geometry type name, eg: `Polygon`.
func (obj *Geometry) Type() string {
	s, _ := obj.Raw["type"].(string)
	return s
}

// Fields returns the sorted names of every field other than the type.
func (obj *Geometry) Fields() []string {
	keys := []string{}
	for k := range obj.Raw {
		if k == "type" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a visual representation of this value.
func (obj *Geometry) String() string { return obj.Type() }

// Node returns the legacy wire node of this literal.
func (obj *Geometry) Node() map[string]interface{} { return copyMap(obj.Raw) }

// copyMap returns a shallow copy of a map.
func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
