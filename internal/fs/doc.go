// Package fs abstracts the file operations behind local backing stores so
// tests can inject I/O failures.
//
//   - [OS] delegates to the os package and is the [Default].
//   - [FaultyFS] wraps another FileSystem and fails opens, reads, writes or
//     syncs for files whose path matches a rule.
//
// Operations take no context.Context; local file I/O cannot be interrupted at
// the syscall level. Remote stores live behind blobstore instead.
package fs
