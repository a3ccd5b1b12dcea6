package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/fauna/core"
)

// Key prefixes for different data types
const (
	speciesPrefix         = "sperec"
	speciesCategoryPrefix = "sperecc"
	speciesUpdatedPrefix  = "sperecu"
	checkpointSuffix      = "chkpt"
)

// makeSpeciesKey generates a key for a species record by key.
func makeSpeciesKey(key core.Key) []byte {
	return []byte(fmt.Sprintf("%s:%d", speciesPrefix, key))
}

// speciesScanPrefix covers primary records only. The index prefixes differ
// from it before the separator.
func speciesScanPrefix() []byte {
	return []byte(speciesPrefix + ":")
}

// makeSpeciesCategoryKey generates a composite key for the category index.
// Format: prefix:label\x00key
func makeSpeciesCategoryKey(label core.TypeLabel, key core.Key) []byte {
	partial := makePartialSpeciesCategoryKey(label)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	binary.BigEndian.PutUint64(buf[offset:], uint64(key))
	return buf
}

// makePartialSpeciesCategoryKey generates a partial key for category queries.
// The NUL terminator keeps "Mammal" from matching "Mammals".
func makePartialSpeciesCategoryKey(label core.TypeLabel) []byte {
	prefix := speciesCategoryPrefix + ":"
	buf := make([]byte, len(prefix)+len(label)+1)
	offset := copy(buf, prefix)
	copy(buf[offset:], label)
	return buf
}

// makeSpeciesUpdatedKey generates a composite key for the update-time index.
// Format: prefix:timestamp:key
func makeSpeciesUpdatedKey(updated time.Time, key core.Key) []byte {
	partial := makePartialSpeciesUpdatedKey(updated)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(key))
	return buf
}

// makePartialSpeciesUpdatedKey generates a partial key for update-time scans.
// Times before the Unix epoch, including the zero time, map to the epoch.
func makePartialSpeciesUpdatedKey(updated time.Time) []byte {
	prefix := speciesUpdatedPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(max(updated.UnixMicro(), 0)))
	return buf
}

// makeCheckpointKey generates a key for job checkpoints.
func makeCheckpointKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", name, checkpointSuffix))
}
