package geoip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixtureDB is a synthetic, minimal on-disk database built for tests.
// Real MaxMind .dat files aren't fetched (this package has no network
// dependency), so tests construct the smallest byte layout that
// exercises the format: a single trie node whose two children are
// already terminal, followed by however many leaf records the test
// needs, followed by a trailing metadata header.
type fixtureDB struct {
	edition      Edition
	recordLength int
	segment      int

	// leftTerminal and rightTerminal are the pointer values stored in the
	// node's low and high half respectively. Each must be >= segment so
	// traversal terminates on the very first node read.
	leftTerminal  int
	rightTerminal int

	// leaf holds the leaf segment bytes, starting at absolute offset
	// segment*2*recordLength.
	leaf []byte

	// headerText is appended after the edition byte and 3-byte segment
	// value, e.g. " 20230615" or " FREE 20230615".
	headerText string
}

// bytes renders db into the full file contents: node table, leaf
// segment, then trailing header.
func (db fixtureDB) bytes() []byte {
	rl := db.recordLength

	node := make([]byte, 2*rl)
	putLE(node[:rl], db.leftTerminal, rl)
	putLE(node[rl:], db.rightTerminal, rl)

	buf := append([]byte{}, node...)
	buf = append(buf, db.leaf...)

	header := []byte{0xFF, 0xFF, 0xFF, byte(db.edition)}
	seg := make([]byte, 3)
	putLE(seg, db.segment, 3)
	header = append(header, seg...)
	header = append(header, []byte(db.headerText)...)

	return append(buf, header...)
}

// putLE writes v as an n-byte little-endian unsigned integer into dest.
func putLE(dest []byte, v, n int) {
	for i := 0; i < n; i++ {
		dest[i] = byte(v >> (uint(i) * 8))
	}
}

// write persists db to a file in a per-test temporary directory and
// returns its path.
func (db fixtureDB) write(t *testing.T) (path string) {
	t.Helper()

	dir := t.TempDir()
	path = filepath.Join(dir, "fixture.dat")

	require.NoError(t, os.WriteFile(path, db.bytes(), 0o600))

	return path
}

// countryFixture builds a minimal Country-edition database that routes
// addresses whose top trie bit is 0 to low and addresses whose top bit
// is 1 to high.
func countryFixture(low, high Country) fixtureDB {
	return fixtureDB{
		edition:       Country,
		recordLength:  3,
		segment:       countryBegin,
		leftTerminal:  countryBegin + countryIndex(low),
		rightTerminal: countryBegin + countryIndex(high),
		headerText:    " 20230615",
	}
}

func countryIndex(c Country) (idx int) {
	for i, code := range countryCodes {
		if code == c.Code {
			return i
		}
	}

	return 0
}
