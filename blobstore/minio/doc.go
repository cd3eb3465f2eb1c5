// Package minio stores GIS backing stores in MinIO or any S3-compatible
// service reachable through minio-go.
//
//	store, err := minio.New("localhost:9000", "gis-data",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("va/"),
//	)
package minio
