// Command pgraph converts property graphs between JSON documents and
// snapshot dumps, and prints dump statistics.
//
// Usage:
//
//	pgraph import graph.json --store ./dump
//	pgraph export --store ./dump -o graph.json
//	pgraph stats --store s3://bucket/graphs/shop
//
// Stores:
//
//	<dir>                          local directory
//	s3://<bucket>/<prefix>         AWS S3, default credential chain
//	minio://<endpoint>/<bucket>/<prefix>
//	                               MinIO, MINIO_ACCESS_KEY / MINIO_SECRET_KEY
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
