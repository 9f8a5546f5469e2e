// Package resource bounds the I/O done by dump and restore.
//
// A Controller combines two limits:
//
//   - Transfers: a weighted semaphore capping concurrent blob transfers.
//   - Throughput: a token bucket capping bytes per second.
//
//	rc := resource.NewController(resource.Config{
//	    MaxTransfers:       4,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireTransfer(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseTransfer()
//	if err := rc.AcquireIO(ctx, len(blob)); err != nil {
//	    return err
//	}
//
// All methods handle a nil Controller gracefully and become no-ops.
package resource
