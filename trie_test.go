package geoip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeekIPv4_singleNode(t *testing.T) {
	db := countryFixture(Country{Code: "FR", Name: "France"}, Country{Code: "US", Name: "United States"})
	path := db.write(t)

	s, size, err := openStore(path, ModeFile, noopLogger())
	require.NoError(t, err)
	defer func() { _ = s.close() }()

	info, err := readDatabaseInfo(s, size, path)
	require.NoError(t, err)

	// Top bit clear routes to the "low" (left) terminal, France.
	terminal := seekIPv4(s, info, 0x00000000)
	assert.Equal(t, countryForTerminal(terminal).Code, "FR")

	// Top bit set routes to the "high" (right) terminal, the US.
	terminal = seekIPv4(s, info, 0x80000000)
	assert.Equal(t, countryForTerminal(terminal).Code, "US")
}

func TestSeekIPv6_singleNode(t *testing.T) {
	db := countryFixture(Country{Code: "FR", Name: "France"}, Country{Code: "US", Name: "United States"})
	path := db.write(t)

	s, size, err := openStore(path, ModeFile, noopLogger())
	require.NoError(t, err)
	defer func() { _ = s.close() }()

	info, err := readDatabaseInfo(s, size, path)
	require.NoError(t, err)

	low := make([]byte, 16)
	terminal := seekIPv6(s, info, low)
	assert.Equal(t, "FR", countryForTerminal(terminal).Code)

	high := make([]byte, 16)
	high[0] = 0x80
	terminal = seekIPv6(s, info, high)
	assert.Equal(t, "US", countryForTerminal(terminal).Code)
}

func TestSeekIPv6_degenerateIPv4(t *testing.T) {
	db := countryFixture(Country{Code: "FR", Name: "France"}, Country{Code: "US", Name: "United States"})
	path := db.write(t)

	s, size, err := openStore(path, ModeFile, noopLogger())
	require.NoError(t, err)
	defer func() { _ = s.close() }()

	info, err := readDatabaseInfo(s, size, path)
	require.NoError(t, err)

	// A bare 4-byte slice is zero-extended into the last four bytes of a
	// 16-byte buffer, so its top bit (byte 0 of the 16-byte form) is
	// always clear regardless of payload.
	terminal := seekIPv6(s, info, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	assert.Equal(t, "FR", countryForTerminal(terminal).Code)
}

func TestReadPointer(t *testing.T) {
	testCases := []struct {
		name string
		buf  []byte
		n    int
		want int
	}{{
		name: "three_byte",
		buf:  []byte{0x01, 0x00, 0x00},
		n:    3,
		want: 1,
	}, {
		name: "three_byte_high_bytes",
		buf:  []byte{0xC0, 0xFF, 0xFF},
		n:    3,
		want: 16_777_152,
	}, {
		name: "four_byte",
		buf:  []byte{0x00, 0x01, 0x00, 0x00},
		n:    4,
		want: 256,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, readPointer(tc.buf, tc.n))
		})
	}
}
