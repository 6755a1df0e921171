package geoip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cityFixture(t *testing.T) (path string) {
	t.Helper()

	leaf := []byte{0x00} // index 0 unreachable, see record_test.go
	leaf = append(leaf, byte(countryIndex(Country{Code: "US"})))
	leaf = append(leaf, []byte("CA\x00Mountain View\x0094043\x00")...)
	leaf = append(leaf, make([]byte, 6)...) // lat/lon, unused by these tests

	db := fixtureDB{
		edition:       CityRev1,
		recordLength:  3,
		segment:       1,
		leftTerminal:  2,
		rightTerminal: 2,
		leaf:          leaf,
		headerText:    " 20230615",
	}

	return db.write(t)
}

func TestOpenStore_file(t *testing.T) {
	path := cityFixture(t)

	s, size, err := openStore(path, ModeFile, noopLogger())
	require.NoError(t, err)
	defer func() { _ = s.close() }()

	assert.Positive(t, size)

	buf := make([]byte, 4)
	n := s.read(buf, 0)
	assert.Equal(t, 4, n)
}

func TestOpenStore_memory(t *testing.T) {
	path := cityFixture(t)

	s, _, err := openStore(path, ModeMemoryCache, noopLogger())
	require.NoError(t, err)
	defer func() { _ = s.close() }()

	buf := make([]byte, 4)
	n := s.read(buf, 0)
	assert.Equal(t, 4, n)

	// Reading past the end yields nothing rather than an error.
	n = s.read(buf, 1<<30)
	assert.Zero(t, n)
}

func TestOpenStore_indexCache(t *testing.T) {
	path := cityFixture(t)

	s, size, err := openStore(path, ModeIndexCache, noopLogger())
	require.NoError(t, err)
	defer func() { _ = s.close() }()

	// The node table (6 bytes: one node, recordLength 3) is served from
	// the prefix; anything past it falls through to the file.
	buf := make([]byte, 6)
	n := s.read(buf, 0)
	assert.Equal(t, 6, n)

	tail := make([]byte, 4)
	n = s.read(tail, size-4)
	assert.Equal(t, 4, n)
}

func TestOpenStore_unknownMode(t *testing.T) {
	path := cityFixture(t)

	_, _, err := openStore(path, Mode(99), noopLogger())
	assert.Error(t, err)
}

func TestOpenStore_missingFile(t *testing.T) {
	_, _, err := openStore("/nonexistent/path.dat", ModeFile, noopLogger())
	assert.Error(t, err)
}

func TestFileStore_readPastEOF(t *testing.T) {
	path := cityFixture(t)

	s, size, err := openStore(path, ModeFile, noopLogger())
	require.NoError(t, err)
	defer func() { _ = s.close() }()

	buf := make([]byte, 8)
	n := s.read(buf, size)
	assert.Zero(t, n)
}
