package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	indexEntryPrefix = "idxent"
	indexMetaPrefix  = "idxmet"
)

// makeIndexMetaKey generates the metadata key for a named index.
func makeIndexMetaKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", indexMetaPrefix, name))
}

// makeIndexEntryPrefix generates the key prefix covering every entry of a
// named index.
func makeIndexEntryPrefix(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", indexEntryPrefix, name))
}

// makeIndexEntryKey generates the key for one positional entry.
// The position is written in BigEndian order so iteration in lexicographic
// key order recovers the original document order.
func makeIndexEntryKey(name string, position int) []byte {
	prefix := makeIndexEntryPrefix(name)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}
