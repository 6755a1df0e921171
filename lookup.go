package geoip

import (
	"context"
	"log/slog"
	"net/netip"
)

// Engine is an open GeoIP database, ready to serve lookups. Once
// returned by [Open] it is immutable and safe for concurrent use:
// store and info never change for the lifetime of the value.
// [Engine.Watch] and [Engine.WatchPoll] never mutate an *Engine in
// place; on a successful reopen they construct a new one and hand it to
// their callback.
type Engine struct {
	store   store
	info    DatabaseInfo
	mode    Mode
	logger  *slog.Logger
	metrics Metrics

	watchCancel context.CancelFunc
}

// Option configures an [Engine] at [Open] time.
type Option func(*engineOptions)

type engineOptions struct {
	logger  *slog.Logger
	metrics Metrics
}

// WithLogger sets the logger an [Engine] uses for best-effort read
// failures and traversal overruns. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// WithMetrics sets the [Metrics] sink an [Engine] reports to. The
// default is [EmptyMetrics].
func WithMetrics(m Metrics) Option {
	return func(o *engineOptions) { o.metrics = m }
}

// Open opens the database file at path using the given backing-store
// mode and returns a ready-to-use *Engine. It fails if the file cannot
// be read or if its edition byte does not match any known [Edition].
func Open(path string, mode Mode, opts ...Option) (e *Engine, err error) {
	o := &engineOptions{logger: noopLogger(), metrics: EmptyMetrics{}}
	for _, apply := range opts {
		apply(o)
	}

	s, size, err := openStore(path, mode, o.logger)
	if err != nil {
		o.metrics.HandleOpen(context.Background(), path, err)

		return nil, &OpenError{Path: path, Err: err}
	}

	info, err := readDatabaseInfo(s, size, path)
	if err != nil {
		_ = s.close()
		o.metrics.HandleOpen(context.Background(), path, err)

		return nil, &OpenError{Path: path, Err: err}
	}

	o.metrics.HandleOpen(context.Background(), path, nil)
	o.logger.Info("opened geoip database", "path", path, "type", info.Type, "mode", mode)

	return &Engine{
		store:   s,
		info:    info,
		mode:    mode,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// Close releases the engine's backing-store resources. Close is
// idempotent and safe to call after any sequence of queries; it also
// cancels any active watcher started with [Engine.Watch] or
// [Engine.WatchPoll].
func (e *Engine) Close() (err error) {
	e.cancelWatch()

	return e.store.close()
}

// DatabaseInfo returns the metadata recovered when the database was
// opened.
func (e *Engine) DatabaseInfo() (info DatabaseInfo) {
	return e.info
}

// seek walks the trie for addr and returns the terminal pointer, or 0 if
// addr has no key space in the open database (a genuine IPv6 address
// against a non-V6 edition) or the traversal ran out of depth without
// terminating (logged and counted as a TraversalOverrun). Callers treat 0
// as an unresolved address.
//
// The walker is chosen from the open database's edition, never from the
// shape of addr: a *V6 edition always builds a 128-level trie, so an
// IPv4 or IPv4-mapped query address is reduced to its 4-byte form and
// fed through seekIPv6, which zero-extends it the same way
// seekCountryV6 does in the original.
func (e *Engine) seek(addr netip.Addr) (terminal int, s store, info DatabaseInfo) {
	s, info = e.store, e.info

	switch {
	case info.Type.isV6():
		if addr.Is4() || addr.Is4In6() {
			a4 := addr.As4()
			terminal = seekIPv6(s, info, a4[:])
		} else {
			raw := addr.As16()
			terminal = seekIPv6(s, info, raw[:])
		}
	case addr.Is4() || addr.Is4In6():
		a4 := addr.As4()

		v := uint32(a4[0])<<24 | uint32(a4[1])<<16 | uint32(a4[2])<<8 | uint32(a4[3])
		terminal = seekIPv4(s, info, v)
	default:
		// A genuine IPv6 address has no key space in a non-V6 database.
		return 0, s, info
	}

	if terminal < 0 {
		e.logger.Error("trie traversal overran depth budget", "path", info.Path)
		e.metrics.HandleTraversalOverrun(context.Background(), info.Path)

		return 0, s, info
	}

	return terminal, s, info
}

// Country returns the country for addr. It returns the sentinel
// ("--", "N/A") if addr cannot be resolved or the database has no
// country data for it.
func (e *Engine) Country(addr netip.Addr) (c Country) {
	terminal, _, _ := e.seek(addr)

	return countryForTerminal(terminal)
}

// ID returns the raw trie terminal offset from the leaf segment for addr:
// terminal - databaseSegment. It returns 0 if the address could not be
// resolved.
func (e *Engine) ID(addr netip.Addr) (id int) {
	terminal, _, info := e.seek(addr)
	if terminal == 0 {
		return 0
	}

	return terminal - info.Segment
}

// Region returns the region record for addr per the database's region
// edition (REV0 or REV1). It returns a zero Region if the open database
// is not a region edition.
func (e *Engine) Region(addr netip.Addr) (r Region) {
	terminal, _, info := e.seek(addr)

	switch info.Type {
	case RegionRev0:
		return regionRev0(terminal)
	case RegionRev1:
		return regionRev1(terminal)
	default:
		return Region{}
	}
}

// Location returns the City-edition location record for addr, or nil if
// the address cannot be resolved or has no leaf record (the trie terminal
// equals the leaf segment offset).
func (e *Engine) Location(addr netip.Addr) (loc *Location) {
	terminal, s, info := e.seek(addr)

	return decodeLocation(s, info, terminal)
}

// Org returns the organization, ISP, ASN, or domain string for addr. ok
// is false if the address cannot be resolved or has no leaf record.
func (e *Engine) Org(addr netip.Addr) (org string, ok bool) {
	terminal, s, info := e.seek(addr)

	return decodeOrg(s, info, terminal)
}
