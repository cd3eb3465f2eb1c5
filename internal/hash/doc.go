// Package hash computes the CRC32C checksums sent with S3 uploads.
package hash
