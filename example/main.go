// Command geoipdemo is a small standalone program that opens a legacy
// GeoIP database and looks up a single address against it, wiring the
// module's Prometheus metrics and env-driven configuration together the
// way a real deployment would.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmlegacy/geoiplookup"
)

func main() {
	envs := errors.Must(parseEnvironment())

	logger := slogutil.New(&slogutil.Config{
		Format:       slogutil.Format(envs.LogFormat),
		AddTimestamp: true,
		Level:        slog.LevelDebug,
	})

	mode, err := parseMode(envs.Mode)
	errors.Check(err)

	reg := prometheus.NewRegistry()
	promMetrics := geoip.NewPromMetrics(reg, "geoipdemo", "engine")

	engine, err := geoip.Open(
		envs.DatabasePath,
		mode,
		geoip.WithLogger(logger.With(slogutil.KeyPrefix, "geoip")),
		geoip.WithMetrics(promMetrics),
	)
	errors.Check(err)
	defer func() { errors.Check(engine.Close()) }()

	addr, err := netip.ParseAddr(envs.QueryAddr)
	errors.Check(err)

	logger.InfoContext(context.Background(), "opened database", "info", engine.DatabaseInfo())

	c := engine.Country(addr)
	fmt.Printf("country: %s (%s)\n", c.Name, c.Code)

	if loc := engine.Location(addr); loc != nil {
		fmt.Printf("city: %s, %s %s\n", loc.City, loc.Region, loc.PostalCode)
		fmt.Printf("coordinates: %.4f, %.4f\n", loc.Latitude, loc.Longitude)
	}

	if org, ok := engine.Org(addr); ok {
		fmt.Printf("org: %s\n", org)
	}

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", envs.MetricsAddr)
	errors.Check(http.ListenAndServe(envs.MetricsAddr, nil))
}

// parseMode maps the GEOIP_MODE environment value onto a [geoip.Mode].
func parseMode(s string) (m geoip.Mode, err error) {
	switch s {
	case "", "file":
		return geoip.ModeFile, nil
	case "index-cache":
		return geoip.ModeIndexCache, nil
	case "memory-cache":
		return geoip.ModeMemoryCache, nil
	default:
		return 0, fmt.Errorf("unknown geoip mode %q", s)
	}
}
