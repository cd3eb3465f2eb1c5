// Package s3 stores GIS backing stores in Amazon S3.
//
//	store, err := s3.New(ctx, "gis-data",
//	    s3.WithPrefix("va/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	db, err := gisdb.Open(ctx, gisdb.Remote(store, "features.db"))
//
// Blobs are read with ranged GETs, so record lookups fetch only the line they
// need. Writes stream through the SDK upload manager and are CRC32C-checked.
package s3
