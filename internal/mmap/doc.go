// Package mmap maps append-only backing stores read-only into memory.
//
//	f, err := mmap.Open("features.db")
//	if err != nil { ... }
//	defer f.Close()
//
//	n, err := f.ReadAt(buf, off)
//
// A read that reaches past the mapped length remaps the file, so records
// appended after Open become visible. Unix uses mmap(2) with MADV_RANDOM;
// Windows uses CreateFileMapping and MapViewOfFile.
package mmap
