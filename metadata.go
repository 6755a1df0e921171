package geoip

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
	"unicode"
)

// DatabaseInfo is the immutable metadata recovered from a database's
// trailing header at open time.
type DatabaseInfo struct {
	// Type is the database edition.
	Type Edition

	// RecordLength is the width, in bytes, of one child pointer inside a
	// trie node: 3 or 4.
	RecordLength int

	// Segment is the absolute byte offset at which the leaf segment
	// begins.
	Segment int

	// Premium is true unless the header text contains the substring
	// "FREE".
	Premium bool

	// Date is the calendar date encoded in the header, if any could be
	// parsed.
	Date time.Time

	// HasDate reports whether Date was successfully parsed.
	HasDate bool

	// Path is the filesystem location the database was opened from, kept
	// for watch/reopen.
	Path string
}

// sentinel bytes that mark the start of the trailing metadata block.
const sentinelByte = 0xFF

// readDatabaseInfo reads up to structureInfoMaxSize+3 bytes from the end
// of path (via rd) and parses the trailing header. It is the Go
// equivalent of the original DatabaseInfo constructor: it scans backward
// from the end of the read window for a run of three 0xFF bytes, then
// treats everything after that run as the header.
func readDatabaseInfo(rd store, size int64, path string) (info DatabaseInfo, err error) {
	windowLen := structureInfoMaxSize + 3
	if windowLen > int(size) {
		windowLen = int(size)
	}

	window := make([]byte, windowLen)
	filePos := size - int64(windowLen)
	n := rd.read(window, filePos)
	window = window[:n]

	header := extractHeader(window)

	var dbType Edition
	if len(header) > 0 {
		raw := header[0]
		header = header[1:]
		if raw >= 106 {
			raw -= 105
		}
		dbType = Edition(raw)
	} else {
		dbType = Country
	}

	recordLength, segment, err := segmentFor(dbType, header)
	if err != nil {
		return DatabaseInfo{}, err
	}

	info = DatabaseInfo{
		Type:         dbType,
		RecordLength: recordLength,
		Segment:      segment,
		Path:         path,
	}

	text := string(header)
	info.Premium = !bytes.Contains(header, []byte("FREE"))
	if d, ok := parseHeaderDate(text); ok {
		info.Date, info.HasDate = d, true
	}

	return info, nil
}

// extractHeader scans window from the end backward for a run of three
// consecutive 0xFF bytes and returns everything after that run. If no
// such run exists, it returns nil, and the caller defaults to the
// Country edition.
//
// The loop bound mirrors the original's literal `for (i = 0; i <
// STRUCTURE_INFO_MAX_SIZE; i++)`: i runs 0..19, so window index 0 is
// never inspected.
func extractHeader(window []byte) (header []byte) {
	limit := structureInfoMaxSize - 1
	if max := len(window) - 3; limit > max {
		limit = max
	}

	for i := 0; i <= limit; i++ {
		j := len(window) - 3 - i
		if j < 0 {
			break
		}

		if window[j] == sentinelByte && window[j+1] == sentinelByte && window[j+2] == sentinelByte {
			return window[j+3:]
		}
	}

	return nil
}

// segmentFor returns the record length and leaf-segment offset for dbType,
// reading the 3-byte little-endian segment value from header's tail for
// editions that don't have a fixed segment offset.
func segmentFor(dbType Edition, header []byte) (recordLength, segment int, err error) {
	switch dbType {
	case CityRev0, CityRev1, ASNum, NetspeedRev1, CityRev0V6, CityRev1V6, NetspeedRev1V6, ASNumV6:
		return 3, readSegment3(header), nil
	case Org, ISP, Domain, OrgV6, ISPV6, DomainV6:
		return 4, readSegment3(header), nil
	case Country, CountryV6, Proxy, Netspeed:
		return 3, countryBegin, nil
	case RegionRev0:
		return 3, stateBeginRev0, nil
	case RegionRev1:
		return 3, stateBeginRev1, nil
	default:
		return 0, 0, &unknownEditionError{raw: byte(dbType)}
	}
}

// readSegment3 reads a 3-byte little-endian unsigned integer from the
// start of header. A header shorter than 3 bytes yields 0.
func readSegment3(header []byte) (v int) {
	for i := 0; i < 3 && i < len(header); i++ {
		v += int(header[i]) << (uint(i) * 8)
	}

	return v
}

// parseHeaderDate finds the first whitespace byte in text and parses the
// following 8 bytes as a yyyyMMdd date. It stops at the first whitespace
// byte regardless of whether the following bytes parse, matching the
// original's "find whitespace, try once, give up" behavior.
func parseHeaderDate(text string) (d time.Time, ok bool) {
	for i := 0; i < len(text); i++ {
		if !unicode.IsSpace(rune(text[i])) {
			continue
		}

		if i+9 > len(text) {
			return time.Time{}, false
		}

		digits := text[i+1 : i+9]
		year, err1 := strconv.Atoi(digits[0:4])
		month, err2 := strconv.Atoi(digits[4:6])
		day, err3 := strconv.Atoi(digits[6:8])
		if err1 != nil || err2 != nil || err3 != nil {
			return time.Time{}, false
		}

		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// String implements fmt.Stringer for DatabaseInfo, for logging.
func (info DatabaseInfo) String() (s string) {
	return fmt.Sprintf(
		"geoip database %q: type=%s record_length=%d segment=%d premium=%t",
		info.Path, info.Type, info.RecordLength, info.Segment, info.Premium,
	)
}
