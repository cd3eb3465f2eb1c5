// Package resource limits the memory held by record caches and the rate of
// backing-store reads.
//
// A nil *Controller is valid and imposes no limits, so components can accept
// one unconditionally.
package resource
