package geoip

// Edition is the schema identifier stored in a database's trailing
// metadata header.  It determines record width, segment offset, and the
// shape of leaf records.
type Edition byte

// Edition constants.  Values and names are stable: test fixtures and the
// header-rebasing rule in [readDatabaseInfo] depend on them.
const (
	Country        Edition = 1
	CityRev1       Edition = 2
	RegionRev1     Edition = 3
	ISP            Edition = 4
	Org            Edition = 5
	CityRev0       Edition = 6
	RegionRev0     Edition = 7
	Proxy          Edition = 8
	ASNum          Edition = 9
	Netspeed       Edition = 10
	Domain         Edition = 11
	CountryV6      Edition = 12
	ASNumV6        Edition = 21
	ISPV6          Edition = 22
	OrgV6          Edition = 23
	DomainV6       Edition = 24
	CityRev1V6     Edition = 30
	CityRev0V6     Edition = 31
	NetspeedRev1   Edition = 32
	NetspeedRev1V6 Edition = 33
)

// isV6 reports whether e stores a 128-level IPv6 trie rather than a
// 32-level IPv4 one. Dispatch on this, never on the shape of the query
// address: an IPv4-mapped address queried against a V6 edition must
// still walk the 128-bit trie.
func (e Edition) isV6() bool {
	switch e {
	case CountryV6, ASNumV6, ISPV6, OrgV6, DomainV6, CityRev1V6, CityRev0V6, NetspeedRev1V6:
		return true
	default:
		return false
	}
}

// String returns a short human-readable name for e, for logging.
func (e Edition) String() string {
	switch e {
	case Country:
		return "country"
	case CityRev1:
		return "city-rev1"
	case RegionRev1:
		return "region-rev1"
	case ISP:
		return "isp"
	case Org:
		return "org"
	case CityRev0:
		return "city-rev0"
	case RegionRev0:
		return "region-rev0"
	case Proxy:
		return "proxy"
	case ASNum:
		return "asnum"
	case Netspeed:
		return "netspeed"
	case Domain:
		return "domain"
	case CountryV6:
		return "country-v6"
	case ASNumV6:
		return "asnum-v6"
	case ISPV6:
		return "isp-v6"
	case OrgV6:
		return "org-v6"
	case DomainV6:
		return "domain-v6"
	case CityRev1V6:
		return "city-rev1-v6"
	case CityRev0V6:
		return "city-rev0-v6"
	case NetspeedRev1:
		return "netspeed-rev1"
	case NetspeedRev1V6:
		return "netspeed-rev1-v6"
	default:
		return "unknown"
	}
}

// Fixed arithmetic constants used throughout address-index resolution.
// See the "Fixed constants" entry of the data model this package
// implements.
const (
	countryBegin         = 16_776_960
	stateBeginRev0       = 16_700_000
	stateBeginRev1       = 16_000_000
	usOffset             = 1
	canadaOffset         = 677
	worldOffset          = 1353
	fipsRange            = 360
	structureInfoMaxSize = 20
	fullRecordLength     = 60
	maxOrgRecordLength   = 300

	// maxRecordLength is the widest record length of any edition (3 or
	// 4). The trie walkers size their node buffer at 2*maxRecordLength=8
	// bytes so the same fixed-size stack buffer serves every edition
	// without a per-database allocation; each node read fills only the
	// first 2*RecordLength bytes of it.
	maxRecordLength = 4
)

// Mode selects a backing-store strategy for an open database file. The
// set is closed.
type Mode int

const (
	// ModeFile serves every read with a positional read on the open file
	// handle. Minimal memory, one read per trie node during traversal.
	ModeFile Mode = iota

	// ModeIndexCache eagerly loads the trie prefix into memory and serves
	// reads inside that window from memory, falling through to the file
	// for anything beyond it.
	ModeIndexCache

	// ModeMemoryCache loads the entire database file into memory at open
	// time. Fastest queries, largest footprint.
	ModeMemoryCache
)

// String implements fmt.Stringer for Mode, for logging.
func (m Mode) String() string {
	switch m {
	case ModeFile:
		return "file"
	case ModeIndexCache:
		return "index-cache"
	case ModeMemoryCache:
		return "memory-cache"
	default:
		return "unknown"
	}
}

// Country is the result of a country lookup: a pair of an ISO 3166-1
// alpha-2 code and its display name. The zero value is not a valid
// Country; use [unknownCountry] or a table lookup.
type Country struct {
	// Code is the ISO 3166-1 alpha-2 country code, e.g. "US".
	Code string

	// Name is the country's display name, e.g. "United States".
	Name string
}

// unknownCountry is the sentinel returned when a query resolves to
// country-table index 0 or cannot be resolved at all.
var unknownCountry = Country{Code: "--", Name: "N/A"}

// CountryByCode looks up the country with ISO 3166-1 alpha-2 code in the
// process-wide country table. It returns a [*NotACountryError] if code
// does not match any entry.
func CountryByCode(code string) (c Country, err error) {
	for i, known := range countryCodes {
		if known == code {
			return Country{Code: known, Name: countryNames[i]}, nil
		}
	}

	return Country{}, &NotACountryError{Code: code}
}

// Region is the result of a region/subdivision lookup.
type Region struct {
	// CountryCode is the ISO 3166-1 alpha-2 country code. Empty if the
	// lookup did not resolve to a country.
	CountryCode string

	// CountryName is the country's display name.
	CountryName string

	// Code is the two-letter US state or Canadian province code. Empty
	// outside the US/CA ranges.
	Code string
}

// Location is the result of a City-edition lookup.
type Location struct {
	CountryCode string
	CountryName string
	Region      string
	City        string
	PostalCode  string
	Latitude    float64
	Longitude   float64

	// DMACode and MetroCode are always equal; both are retained because
	// the original format exposes them as separate fields.
	DMACode   int
	MetroCode int
	AreaCode  int
}
