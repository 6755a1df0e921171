package geoip

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_country(t *testing.T) {
	db := countryFixture(Country{Code: "FR", Name: "France"}, Country{Code: "US", Name: "United States"})
	path := db.write(t)

	e, err := Open(path, ModeFile)
	require.NoError(t, err)
	defer func() { require.NoError(t, e.Close()) }()

	assert.Equal(t, Country, e.DatabaseInfo().Type)
	assert.Equal(t, "US", e.Country(netip.MustParseAddr("128.0.0.1")).Code)
	assert.Equal(t, "FR", e.Country(netip.MustParseAddr("1.2.3.4")).Code)

	// A non-V6 edition has no IPv6 key space; a genuine IPv6 query
	// degrades gracefully to the unknown sentinel rather than being
	// routed through the wrong trie.
	assert.Equal(t, unknownCountry, e.Country(netip.MustParseAddr("8000::1")))
}

// TestOpen_countryV6_mappedAddress covers the seed scenario of opening a
// COUNTRY_V6 database in MemoryCache and querying an IPv4-mapped IPv6
// address: the query must still walk the 128-level trie, zero-extending
// the 4-byte payload the same way a genuine 16-byte key with a leading
// run of zero bits would, not fall through to the 32-level IPv4 walker.
func TestOpen_countryV6_mappedAddress(t *testing.T) {
	db := countryFixture(Country{Code: "US", Name: "United States"}, Country{Code: "FR", Name: "France"})
	db.edition = CountryV6
	path := db.write(t)

	e, err := Open(path, ModeMemoryCache)
	require.NoError(t, err)
	defer func() { require.NoError(t, e.Close()) }()

	assert.Equal(t, CountryV6, e.DatabaseInfo().Type)

	mapped := netip.MustParseAddr("::ffff:64.17.254.216")
	require.True(t, mapped.Is4In6())
	assert.Equal(t, "US", e.Country(mapped).Code)
}

func TestOpen_countryV6_genuineAddress(t *testing.T) {
	db := countryFixture(Country{Code: "US", Name: "United States"}, Country{Code: "FR", Name: "France"})
	db.edition = CountryV6
	path := db.write(t)

	e, err := Open(path, ModeFile)
	require.NoError(t, err)
	defer func() { require.NoError(t, e.Close()) }()

	// A genuine (non-mapped) IPv6 address whose top bit is set takes the
	// opposite branch from the all-zero-prefixed mapped-address case.
	assert.Equal(t, "FR", e.Country(netip.MustParseAddr("8000::1")).Code)
}

func TestOpen_unknownEdition(t *testing.T) {
	db := countryFixture(Country{Code: "FR"}, Country{Code: "US"})
	db.edition = Edition(250)
	path := db.write(t)

	_, err := Open(path, ModeFile)
	require.Error(t, err)

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
}

func TestOpen_missingFile(t *testing.T) {
	_, err := Open("/nonexistent/path.dat", ModeFile)
	require.Error(t, err)
}

func TestEngine_Location(t *testing.T) {
	leaf := []byte{0x00}
	leaf = append(leaf, byte(countryIndex(Country{Code: "US"})))
	leaf = append(leaf, []byte("CA\x00Mountain View\x0094043\x00")...)
	leaf = append(leaf, make([]byte, 6)...)

	db := fixtureDB{
		edition:       CityRev1,
		recordLength:  3,
		segment:       1,
		leftTerminal:  2,
		rightTerminal: 2,
		leaf:          leaf,
		headerText:    " 20230615",
	}
	path := db.write(t)

	e, err := Open(path, ModeFile)
	require.NoError(t, err)
	defer func() { require.NoError(t, e.Close()) }()

	loc := e.Location(netip.MustParseAddr("1.2.3.4"))
	require.NotNil(t, loc)
	assert.Equal(t, "Mountain View", loc.City)
}

func TestEngine_Org(t *testing.T) {
	leaf := append([]byte{0x00}, []byte("Example Networks, Inc.\x00")...)

	db := fixtureDB{
		edition:       Org,
		recordLength:  4,
		segment:       1,
		leftTerminal:  2,
		rightTerminal: 2,
		leaf:          leaf,
		headerText:    " 20230615",
	}
	path := db.write(t)

	e, err := Open(path, ModeFile)
	require.NoError(t, err)
	defer func() { require.NoError(t, e.Close()) }()

	org, ok := e.Org(netip.MustParseAddr("1.2.3.4"))
	require.True(t, ok)
	assert.Equal(t, "Example Networks, Inc.", org)
}

func TestEngine_Region(t *testing.T) {
	db := fixtureDB{
		edition:       RegionRev1,
		recordLength:  3,
		segment:       stateBeginRev1,
		leftTerminal:  stateBeginRev1 + usOffset,
		rightTerminal: stateBeginRev1 + canadaOffset,
		headerText:    " 20230615",
	}
	path := db.write(t)

	e, err := Open(path, ModeFile)
	require.NoError(t, err)
	defer func() { require.NoError(t, e.Close()) }()

	r := e.Region(netip.MustParseAddr("1.2.3.4"))
	assert.Equal(t, "US", r.CountryCode)
	assert.Equal(t, "AA", r.Code)

	r = e.Region(netip.MustParseAddr("128.0.0.1"))
	assert.Equal(t, "CA", r.CountryCode)
	assert.Equal(t, "AA", r.Code)
}

func TestEngine_Close_idempotent(t *testing.T) {
	db := countryFixture(Country{Code: "FR"}, Country{Code: "US"})
	path := db.write(t)

	e, err := Open(path, ModeFile)
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}
