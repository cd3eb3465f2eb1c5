package record

import (
	"fmt"
	"strings"
)

// NumFields is the number of fields of a GNIS record line. A trailing
// DateEdited field is tolerated.
const NumFields = 19

// Delimiter separates record fields.
const Delimiter = "|"

// ErrFieldCount indicates a line that does not split into a record.
type ErrFieldCount struct {
	Got int
}

func (e *ErrFieldCount) Error() string {
	return fmt.Sprintf("record: got %d fields, want %d or %d", e.Got, NumFields, NumFields+1)
}

// Record is a parsed GNIS feature line.
type Record struct {
	FeatureID       string
	FeatureName     string
	FeatureClass    string
	StateAlpha      string
	StateNumeric    string
	CountyName      string
	CountyNumeric   string
	PrimaryLatDMS   string
	PrimaryLongDMS  string
	PrimaryLatDec   string
	PrimaryLongDec  string
	SourceLatDMS    string
	SourceLongDMS   string
	SourceLatDec    string
	SourceLongDec   string
	ElevationMeters string
	ElevationFeet   string
	MapName         string
	DateCreated     string
	DateEdited      string
}

// Parse splits line into a Record.
func Parse(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	f := strings.Split(line, Delimiter)
	if len(f) != NumFields && len(f) != NumFields+1 {
		return Record{}, &ErrFieldCount{Got: len(f)}
	}
	r := Record{
		FeatureID:       f[0],
		FeatureName:     f[1],
		FeatureClass:    f[2],
		StateAlpha:      f[3],
		StateNumeric:    f[4],
		CountyName:      f[5],
		CountyNumeric:   f[6],
		PrimaryLatDMS:   f[7],
		PrimaryLongDMS:  f[8],
		PrimaryLatDec:   f[9],
		PrimaryLongDec:  f[10],
		SourceLatDMS:    f[11],
		SourceLongDMS:   f[12],
		SourceLatDec:    f[13],
		SourceLongDec:   f[14],
		ElevationMeters: f[15],
		ElevationFeet:   f[16],
		MapName:         f[17],
		DateCreated:     f[18],
	}
	if len(f) > NumFields {
		r.DateEdited = f[19]
	}
	return r, nil
}

// Key returns the attribute index key "FeatureName:StateAlpha".
func (r Record) Key() string {
	return NameKey(r.FeatureName, r.StateAlpha)
}

// NameKey builds an attribute index key from a feature name and state.
func NameKey(name, state string) string {
	return name + ":" + state
}

// Coordinates returns the primary location as (x, y) = (longitude, latitude)
// in arc-seconds.
func (r Record) Coordinates() (x, y int64, err error) {
	y, err = ParseLatitude(r.PrimaryLatDMS)
	if err != nil {
		return 0, 0, err
	}
	x, err = ParseLongitude(r.PrimaryLongDMS)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
