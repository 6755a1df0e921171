package geoip

import (
	"math"

	"golang.org/x/text/encoding/charmap"
)

// countryForTerminal maps a trie terminal pointer from a country-only
// traversal (Country, CountryV6, Proxy, Netspeed editions) to a Country
// value. The country-table index is the terminal pointer minus
// countryBegin.
func countryForTerminal(terminal int) (c Country) {
	idx := terminal - countryBegin
	if idx == 0 || idx < 0 || idx >= len(countryCodes) {
		return unknownCountry
	}

	return Country{Code: countryCodes[idx], Name: countryNames[idx]}
}

// regionRev0 decodes a REGION_REV0 terminal pointer per the data model's
// Region lookup (REV0) rule.
func regionRev0(terminal int) (r Region) {
	s := terminal - stateBeginRev0
	if s >= 1000 {
		return Region{
			CountryCode: "US",
			CountryName: "United States",
			Code:        base26(s - 1000),
		}
	}

	if s < 0 || s >= len(countryCodes) {
		return Region{}
	}

	return Region{CountryCode: countryCodes[s], CountryName: countryNames[s]}
}

// regionRev1 decodes a REGION_REV1 terminal pointer per the data model's
// Region lookup (REV1) rule.
func regionRev1(terminal int) (r Region) {
	s := terminal - stateBeginRev1

	switch {
	case s < usOffset:
		return Region{}
	case s < canadaOffset:
		return Region{CountryCode: "US", CountryName: "United States", Code: base26(s - usOffset)}
	case s < worldOffset:
		return Region{CountryCode: "CA", CountryName: "Canada", Code: base26(s - canadaOffset)}
	default:
		idx := (s - worldOffset) / fipsRange
		if idx < 0 || idx >= len(countryCodes) {
			return Region{}
		}

		return Region{CountryCode: countryCodes[idx], CountryName: countryNames[idx]}
	}
}

// base26 renders a 0-based offset as two uppercase ASCII letters, the
// encoding used for US state and Canadian province codes.
func base26(offset int) (code string) {
	return string([]byte{
		byte(offset/26) + 'A',
		byte(offset%26) + 'A',
	})
}

// leafOffset returns the absolute byte offset of the leaf record for
// terminal, per the data model's "Leaf addressing" rule.
func leafOffset(terminal int, info DatabaseInfo) (offset int64) {
	return int64(terminal) + int64(2*info.RecordLength-1)*int64(info.Segment)
}

// decodeLocation parses a City-edition leaf record starting at terminal.
// It returns nil if terminal is not past info.Segment: a terminal equal to
// info.Segment means no leaf is present, and 0 marks an unresolved address.
func decodeLocation(rd store, info DatabaseInfo, terminal int) (loc *Location) {
	if terminal <= info.Segment {
		return nil
	}

	buf := make([]byte, fullRecordLength)
	n := rd.read(buf, leafOffset(terminal, info))
	buf = buf[:n]
	if len(buf) == 0 {
		return nil
	}

	countryIdx := int(buf[0])
	var code, name string
	if countryIdx >= 0 && countryIdx < len(countryCodes) {
		code, name = countryCodes[countryIdx], countryNames[countryIdx]
	}

	off := 1

	region, off := scanASCII(buf, off)
	city, off := scanISO8859_1(buf, off)
	postal, off := scanASCII(buf, off)

	lat, off := extractCoord(buf, off)
	lon, off := extractCoord(buf, off)

	loc = &Location{
		CountryCode: code,
		CountryName: name,
		Region:      region,
		City:        city,
		PostalCode:  postal,
		Latitude:    lat,
		Longitude:   lon,
	}

	// See the V6-city-parsing Open Question this package resolves: the
	// US-metro branch is gated on the edition *value* — covering both the
	// IPv4 and IPv6 city-rev1 editions — by comparison against package
	// constants, never against an instance-qualified field. decodeLocation
	// itself is shared by both address families, so there is exactly one
	// rule instead of a diverging one per family.
	isCityRev1 := info.Type == CityRev1 || info.Type == CityRev1V6
	if isCityRev1 && code == "US" && off+3 <= len(buf) {
		combo := readPointer(buf[off:off+3], 3)
		loc.MetroCode = combo / 1000
		loc.DMACode = loc.MetroCode
		loc.AreaCode = combo % 1000
	}

	return loc
}

// decodeOrg parses an Org/ISP/ASNum/Domain-edition leaf record starting
// at terminal. It returns ("", false) if terminal is not past info.Segment
// (no leaf present, or 0 for an unresolved address).
func decodeOrg(rd store, info DatabaseInfo, terminal int) (org string, ok bool) {
	if terminal <= info.Segment {
		return "", false
	}

	buf := make([]byte, maxOrgRecordLength)
	n := rd.read(buf, leafOffset(terminal, info))
	buf = buf[:n]

	s, _ := scanISO8859_1(buf, 0)

	return s, true
}

// scanASCII reads a NUL-terminated ASCII string starting at off and
// returns it along with the offset just past the terminating NUL (or
// end-of-buffer, if none was found).
func scanASCII(buf []byte, off int) (s string, next int) {
	end := stringScan(buf, off)

	return string(buf[off:end]), end + 1
}

// scanISO8859_1 behaves like scanASCII but decodes the bytes as
// ISO-8859-1, which is the charset the original format uses for city
// names and organization strings — never the platform default and never
// an implicit UTF-8 interpretation, since bytes above 0x7F in ISO-8859-1
// are not valid UTF-8 continuation bytes.
func scanISO8859_1(buf []byte, off int) (s string, next int) {
	end := stringScan(buf, off)

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(buf[off:end])
	if err != nil {
		return string(buf[off:end]), end + 1
	}

	return string(decoded), end + 1
}

// stringScan returns the index of the first NUL byte at or after off, or
// len(buf) if none is found.
func stringScan(buf []byte, off int) (end int) {
	if off > len(buf) {
		return len(buf)
	}

	for end = off; end < len(buf); end++ {
		if buf[end] == 0 {
			return end
		}
	}

	return end
}

// extractCoord decodes a packed 3-byte little-endian coordinate starting
// at off and returns the real-valued coordinate along with the offset
// just past it.
func extractCoord(buf []byte, off int) (value float64, next int) {
	if off+3 > len(buf) {
		return 0, off
	}

	raw := readPointer(buf[off:off+3], 3)

	return decodeCoord(raw), off + 3
}

// decodeCoord converts a raw packed coordinate to its real value.
func decodeCoord(raw int) (value float64) {
	return float64(raw)/10000 - 180
}

// encodeCoord is the inverse of decodeCoord, used by tests to assert the
// round-trip invariant this format's coordinate packing relies on. It
// rounds rather than truncates: float64 division in decodeCoord can
// land a hair below the exact value, and truncating the product back
// would then be off by one.
func encodeCoord(value float64) (raw int) {
	return int(math.Round((value + 180) * 10000))
}
