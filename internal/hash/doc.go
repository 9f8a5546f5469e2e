// Package hash provides the checksums and key hashes used by the engine.
//
// CRC32C (Castagnoli) protects every dumped segment. It is hardware
// accelerated on x86 (SSE4.2) and ARM64 (CRC extension).
//
// String hashes pick the lock stripe of a NodeID. They are seeded once per
// process and must never be persisted.
package hash
