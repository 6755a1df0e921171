// Package geoip implements a read-only lookup engine for the legacy
// MaxMind GeoIP binary-database format: a packed radix-2 trie over IPv4
// or IPv6 address space, terminating either in a country-table index or
// in an edition-specific leaf record (region, city, organization, ISP, or
// ASN).
//
// A single [Engine], obtained via [Open], is immutable and safe for
// concurrent queries for the lifetime of the process that holds it.
// [Engine.Watch] and [Engine.WatchPoll] observe the backing file for
// changes and, on a successful reopen, hand a freshly opened replacement
// [Engine] to a [ReloadFunc] — they never mutate the original.
package geoip
