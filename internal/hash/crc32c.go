package hash

import (
	"hash/crc32"
	"hash/maphash"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

var stringSeed = maphash.MakeSeed()

// String hashes s with a process-wide seed.
func String(s string) uint64 {
	return maphash.String(stringSeed, s)
}

// Combine mixes a small discriminator (e.g. a type ordinal) into h.
func Combine(h uint64, v uint64) uint64 {
	h ^= v + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	return h
}
