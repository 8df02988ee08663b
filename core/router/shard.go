package router

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// ShardFromString maps key onto one of numShards shards. The same key,
// shard count and seed always give the same shard.
func ShardFromString(key string, numShards uint32, seed string) uint32 {
	if numShards == 0 {
		return 0
	}
	h, _ := blake2b.New(8, nil)
	if seed != "" {
		h.Write([]byte(seed))
		h.Write([]byte{0})
	}
	h.Write([]byte(key))
	v := binary.BigEndian.Uint64(h.Sum(nil))
	return uint32(v % uint64(numShards))
}
