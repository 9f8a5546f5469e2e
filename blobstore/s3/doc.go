// Package s3 provides an S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("graphs/social"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = g.Dump(ctx, store)
//
// # Features
//
//   - Multipart uploads for large segments
//   - CRC32C integrity checks on single-part uploads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
