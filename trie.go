package geoip

// seekIPv4 walks the packed trie for a 32-bit IPv4 address and returns the
// terminal pointer value: either a country-table index offset by
// countryBegin, or an absolute leaf offset, depending on edition.
//
// Grounded on LookupService.seekCountry. The node buffer is a fixed
// 2*maxRecordLength=8-byte array regardless of the database's actual
// record length, which is always enough room and avoids a per-database
// allocation; each step reads only 2*info.RecordLength bytes (one node)
// into it and interprets info.RecordLength bytes of each half.
func seekIPv4(rd store, info DatabaseInfo, addr uint32) (terminal int) {
	var buf [2 * maxRecordLength]byte

	offset := 0
	for depth := 31; depth >= 0; depth-- {
		rd.read(buf[:2*info.RecordLength], int64(2*info.RecordLength*offset))

		var next int
		if addr&(1<<uint(depth)) != 0 {
			next = readPointer(buf[info.RecordLength:], info.RecordLength)
		} else {
			next = readPointer(buf[:info.RecordLength], info.RecordLength)
		}

		if next >= info.Segment {
			return next
		}

		offset = next
	}

	// Shouldn't happen on a well-formed database; the caller logs this as
	// a TraversalOverrun and treats it as an unresolved lookup.
	return -1
}

// seekIPv6 walks the packed trie for a 16-byte IPv6 address. If addr is 4
// bytes long (an IPv4-in-IPv6 degenerate case some resolvers produce for
// addresses like ::ffff:a.b.c.d), it is zero-extended to 16 bytes with
// the IPv4 payload in the last four positions, matching
// seekCountryV6's defensive handling of the same condition.
func seekIPv6(rd store, info DatabaseInfo, addr []byte) (terminal int) {
	if len(addr) == 4 {
		extended := make([]byte, 16)
		copy(extended[12:], addr)
		addr = extended
	}

	var buf [2 * maxRecordLength]byte

	offset := 0
	for depth := 127; depth >= 0; depth-- {
		rd.read(buf[:2*info.RecordLength], int64(2*info.RecordLength*offset))

		s := 127 - depth
		idx := s >> 3
		mask := byte(1) << uint((s&7)^7)

		var next int
		if addr[idx]&mask != 0 {
			next = readPointer(buf[info.RecordLength:], info.RecordLength)
		} else {
			next = readPointer(buf[:info.RecordLength], info.RecordLength)
		}

		if next >= info.Segment {
			return next
		}

		offset = next
	}

	return -1
}

// readPointer decodes an n-byte little-endian unsigned integer from buf,
// widening each byte explicitly so that no sign-extension bug can creep
// in (Go byte is already unsigned, but the original Java source's
// "if y < 0) y += 256" dance is preserved here as an explicit loop for
// the same reason: address arithmetic must never go through a signed
// byte).
func readPointer(buf []byte, n int) (v int) {
	for i := 0; i < n; i++ {
		v += int(buf[i]) << (uint(i) * 8)
	}

	return v
}
