package geoip

import "fmt"

// OpenError is returned from [Open] when the database file cannot be
// read or its edition byte does not match any known [Edition].
type OpenError struct {
	// Path is the database file path given to Open.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface for *OpenError.
func (err *OpenError) Error() (msg string) {
	return fmt.Sprintf("geoip: opening %q: %s", err.Path, err.Err)
}

// Unwrap returns the underlying cause, for use with errors.Is/As.
func (err *OpenError) Unwrap() (cause error) {
	return err.Err
}

// unknownEditionError reports an edition byte that doesn't match any
// entry in the switch in [segmentFor].
type unknownEditionError struct {
	raw byte
}

// Error implements the error interface for *unknownEditionError.
func (err *unknownEditionError) Error() (msg string) {
	return fmt.Sprintf("geoip: unknown database edition byte %d", err.raw)
}

// NotACountryError is returned from [CountryByCode] when the string
// doesn't represent a valid country.
//
// Grounded on AdGuardDNS's internal/geoip.NotACountryError.
type NotACountryError struct {
	// Code is the code presented.
	Code string
}

// Error implements the error interface for *NotACountryError.
func (err *NotACountryError) Error() (msg string) {
	return fmt.Sprintf("%q is not a known iso 3166-1 alpha-2 code", err.Code)
}

// TraversalOverrunError reports a trie traversal that consumed its full
// depth budget (32 bits for IPv4, 128 for IPv6) without reaching a
// terminal node. A well-formed database never produces this; it
// indicates a corrupt or truncated file.
type TraversalOverrunError struct {
	// Path is the database file path the traversal was reading from.
	Path string
}

// Error implements the error interface for *TraversalOverrunError.
func (err *TraversalOverrunError) Error() (msg string) {
	return fmt.Sprintf("geoip: trie traversal in %q overran its depth budget", err.Path)
}
