// Package record parses GNIS feature records and decodes their
// degrees-minutes-seconds coordinates.
//
// A record is one line of 19 (or 20) pipe-delimited fields. The attribute
// index key of a record is "FeatureName:StateAlpha"; its spatial key is the
// primary longitude and latitude converted to signed arc-seconds (x, y),
// negative to the west and south.
package record
