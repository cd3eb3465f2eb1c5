package record

import "strings"

// Format selects how a record is rendered in query output.
type Format int

const (
	// Simple renders "name\tcounty\tstate".
	Simple Format = iota
	// Long renders one labelled line per non-empty field.
	Long
	// NameAndLocation renders "county\tlong lat".
	NameAndLocation
	// SimpleWithCoords renders "name\tstate\tlat\tlong".
	SimpleWithCoords
)

func (f Format) String() string {
	switch f {
	case Simple:
		return "simple"
	case Long:
		return "long"
	case NameAndLocation:
		return "name-and-location"
	case SimpleWithCoords:
		return "simple-with-coords"
	default:
		return "unknown"
	}
}

// Format renders r in the given format, newline-terminated.
func (r Record) Format(f Format) string {
	var sb strings.Builder
	switch f {
	case Long:
		field := func(label, v string) {
			if v != "" {
				sb.WriteString(label)
				sb.WriteString(" : ")
				sb.WriteString(v)
				sb.WriteByte('\n')
			}
		}
		field("Feature ID  ", r.FeatureID)
		field("Feature Name", r.FeatureName)
		field("Feat. Class ", r.FeatureClass)
		field("State       ", r.StateAlpha)
		field("County      ", r.CountyName)
		field("Latitude    ", r.PrimaryLatDMS)
		field("Longitude   ", r.PrimaryLongDMS)
		field("Src Long    ", r.SourceLongDMS)
		field("Src Lat     ", r.SourceLatDMS)
		field("Elev in ft  ", r.ElevationFeet)
		field("USGS Quad   ", r.MapName)
		field("Date created", r.DateCreated)
	case NameAndLocation:
		sb.WriteString(r.CountyName + "\t" + r.PrimaryLongDMS + " " + r.PrimaryLatDMS + "\n")
	case SimpleWithCoords:
		sb.WriteString(r.FeatureName + "\t" + r.StateAlpha + "\t" + r.PrimaryLatDMS + "\t" + r.PrimaryLongDMS + "\n")
	default:
		sb.WriteString(r.FeatureName + "\t" + r.CountyName + "\t" + r.StateAlpha + "\n")
	}
	return sb.String()
}
