// Package fs abstracts the file system used by the local blob store so tests
// can inject I/O faults.
//
//   - [LocalFS]: production implementation over the os package
//   - [FaultyFS]: wrapper that fails writes, syncs or renames on matching paths
//
// Operations take no context.Context. Local file operations are not
// interruptible at the syscall level.
package fs
