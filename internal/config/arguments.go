package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/tkjaer/netspeed/internal/latency"
	"github.com/tkjaer/netspeed/internal/throughput"
	"github.com/tkjaer/netspeed/internal/version"
)

// MaxPingCount bounds the number of latency attempts per run
const MaxPingCount = 20

// DefaultDNSTTL is how long resolved server addresses are reused
const DefaultDNSTTL = 5 * time.Minute

var logLevels = []string{"debug", "info", "warn", "error"}

type Args struct {
	Run        bool   // run a single test without the menu
	ConfigFile string // YAML file supplying defaults for unset flags

	// Latency
	PingTarget  string
	PingCount   uint
	PingTimeout time.Duration
	PingPenalty time.Duration

	// Download
	Servers        []string
	Duration       time.Duration
	ConnectTimeout time.Duration
	Insecure       bool
	DNSTTL         time.Duration

	// Output
	Json     bool   // output json to stdout
	JsonFile string // append json reports to file while showing results

	// Logging
	Log      string // log file path, empty means no logging
	LogLevel string // log level: debug, info, warn, error
}

func ParseArgs() (Args, error) {
	var args Args
	var showVersion bool

	// Set custom usage message
	flag.Usage = func() {
		println("netspeed - network speed test")
		println()
		println("Measures latency and download speed from the terminal.")
		println()
		println("Usage:")
		println("  netspeed [OPTIONS]")
		println()
		println("Examples:")
		println("  netspeed                             # Interactive menu")
		println("  netspeed -r                          # Run one test and exit")
		println("  netspeed -J                          # One test, JSON report to stdout")
		println("  netspeed -r -j results.json          # Append JSON reports to a file")
		println("  netspeed -r -s https://host/file     # Use a specific download server")
		println()
		println("Options:")
		flag.PrintDefaults()
		println()
		println("Documentation: https://github.com/tkjaer/netspeed")
		println("Report issues: https://github.com/tkjaer/netspeed/issues")
	}

	flag.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	flag.BoolVarP(&args.Run, "run", "r", false, "Run one speed test and exit (no menu)")
	flag.StringVarP(&args.ConfigFile, "config", "c", "", "YAML config file")

	flag.StringVar(&args.PingTarget, "ping-target", latency.DefaultTarget, "Latency probe target URL")
	flag.UintVar(&args.PingCount, "ping-count", latency.DefaultAttempts, "Number of latency probes (1-20)")
	flag.DurationVar(&args.PingTimeout, "ping-timeout", latency.DefaultTimeout, "Timeout of a single latency probe")
	flag.DurationVar(&args.PingPenalty, "ping-penalty", latency.DefaultPenalty, "Latency recorded for a failed probe")

	flag.StringArrayVarP(&args.Servers, "server", "s", slices.Clone(throughput.DefaultCandidates), "Download server URL, tried in order (repeatable)")
	flag.DurationVarP(&args.Duration, "duration", "d", throughput.DefaultMaxDuration, "Maximum download duration")
	flag.DurationVar(&args.ConnectTimeout, "connect-timeout", throughput.DefaultConnectTimeout, "Download connect timeout")
	flag.BoolVarP(&args.Insecure, "insecure", "k", false, "Skip TLS certificate verification for download servers")
	flag.DurationVar(&args.DNSTTL, "dns-ttl", DefaultDNSTTL, "Resolver cache TTL (0 = no caching)")

	flag.StringVarP(&args.JsonFile, "json-file", "j", "", "Append JSON reports to file (keeps text output)")
	flag.BoolVarP(&args.Json, "json", "J", false, "Write JSON report to stdout (implies --run)")
	flag.StringVarP(&args.Log, "log", "l", "", "Diagnostic log file (empty = no logging)")
	flag.StringVar(&args.LogLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.Parse()

	// Handle version flag
	if showVersion {
		fmt.Println(version.FullVersion())
		os.Exit(0)
	}

	if args.ConfigFile != "" {
		fc, err := LoadFile(args.ConfigFile)
		if err != nil {
			return args, err
		}
		fc.Apply(&args, flag.CommandLine)
	}

	if err := args.validate(); err != nil {
		return args, err
	}

	if args.Json {
		args.Run = true // JSON mode has no menu
	}

	return args, nil
}

func (a Args) validate() error {
	switch {
	case a.Json && a.JsonFile != "":
		return errors.New("cannot use both --json and --json-file")
	case a.PingCount < 1 || a.PingCount > MaxPingCount:
		return errors.New("ping count must be between 1 and 20")
	case a.PingTimeout <= 0:
		return errors.New("ping timeout must be positive")
	case a.PingPenalty <= 0:
		return errors.New("ping penalty must be positive")
	case a.Duration <= 0:
		return errors.New("download duration must be positive")
	case a.ConnectTimeout <= 0:
		return errors.New("connect timeout must be positive")
	case a.DNSTTL < 0:
		return errors.New("dns ttl must not be negative")
	case len(a.Servers) == 0:
		return errors.New("at least one download server is required")
	case !slices.Contains(logLevels, a.LogLevel):
		return errors.New("log level must be one of debug, info, warn, error")
	case !isHTTPURL(a.PingTarget):
		return errors.New("ping target must be an http or https URL")
	}

	for _, s := range a.Servers {
		if !isHTTPURL(s) {
			return fmt.Errorf("download server %q must be an http or https URL", s)
		}
	}
	return nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Mode returns how results are presented
func (a Args) Mode() string {
	switch {
	case a.Json:
		return "json"
	case a.Run:
		return "run"
	default:
		return "menu"
	}
}
