// Package blobstore provides the storage targets for graph dumps.
//
// A Store holds named immutable blobs. Names use forward slashes
// ("edges/knows/0.seg") regardless of platform. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral copies
//   - LocalStore: a directory on the local file system, atomic writes
//   - s3.Store: Amazon S3 (or any S3-compatible endpoint)
//   - minio.Store: MinIO and S3-compatible storage via minio-go
package blobstore
