// Package gisdb provides an embedded, offset-indexed store for geographic
// feature records.
//
// Records are appended to a flat, newline-delimited backing store. Each record
// is addressed by the byte offset of its line and indexed twice: by location
// in a PR quadtree (package spatial) and by "name:state" in an open-addressing
// hash table (package hashindex). Query results are resolved through a small
// LRU of recently read lines (package cache). The indexes are never persisted;
// they are rebuilt from the backing store.
//
// # Quick Start
//
// Local mode:
//
//	ctx := context.Background()
//	db, _ := gisdb.Open(ctx, gisdb.Local("./db.txt"))
//	_ = db.SetWorld(west, east, south, north)
//	stats, _ := db.Import(ctx, "VA_Features.txt.gz")
//	matches, _ := db.WhatIs(ctx, "Blacksburg", "VA")
//
// Cloud mode (read-only):
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("gis/"))
//	db, _ := gisdb.Open(ctx, gisdb.Remote(s3Store, "db.txt"), gisdb.WithRemoteCache(64<<20))
//	_ = db.SetWorld(west, east, south, north)
//	_, _ = db.Rebuild(ctx)
//
// # Coordinates
//
// Coordinates are integer arc-seconds. x is longitude (west negative) and y
// is latitude (south negative), see record.ParseLongitude and
// record.ParseLatitude.
//
// # Concurrency
//
// A DB may be queried from several goroutines. Import, Rebuild and SetWorld
// take an exclusive lock.
package gisdb
