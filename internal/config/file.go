package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the command line flags. Nil fields were absent
// from the file.
type FileConfig struct {
	PingTarget     *string        `yaml:"ping_target"`
	PingCount      *uint          `yaml:"ping_count"`
	PingTimeout    *time.Duration `yaml:"ping_timeout"`
	PingPenalty    *time.Duration `yaml:"ping_penalty"`
	Servers        []string       `yaml:"servers"`
	Duration       *time.Duration `yaml:"duration"`
	ConnectTimeout *time.Duration `yaml:"connect_timeout"`
	Insecure       *bool          `yaml:"insecure"`
	DNSTTL         *time.Duration `yaml:"dns_ttl"`
	JsonFile       *string        `yaml:"json_file"`
	Log            *string        `yaml:"log"`
	LogLevel       *string        `yaml:"log_level"`
}

// LoadFile reads a YAML config file. Unknown keys are rejected.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig

	f, err := os.Open(path)
	if err != nil {
		return fc, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// Apply copies file values into args for every flag not set on the
// command line.
func (fc FileConfig) Apply(args *Args, fs *flag.FlagSet) {
	unset := func(name string) bool {
		return fs == nil || !fs.Changed(name)
	}

	if fc.PingTarget != nil && unset("ping-target") {
		args.PingTarget = *fc.PingTarget
	}
	if fc.PingCount != nil && unset("ping-count") {
		args.PingCount = *fc.PingCount
	}
	if fc.PingTimeout != nil && unset("ping-timeout") {
		args.PingTimeout = *fc.PingTimeout
	}
	if fc.PingPenalty != nil && unset("ping-penalty") {
		args.PingPenalty = *fc.PingPenalty
	}
	if fc.Servers != nil && unset("server") {
		args.Servers = fc.Servers
	}
	if fc.Duration != nil && unset("duration") {
		args.Duration = *fc.Duration
	}
	if fc.ConnectTimeout != nil && unset("connect-timeout") {
		args.ConnectTimeout = *fc.ConnectTimeout
	}
	if fc.Insecure != nil && unset("insecure") {
		args.Insecure = *fc.Insecure
	}
	if fc.DNSTTL != nil && unset("dns-ttl") {
		args.DNSTTL = *fc.DNSTTL
	}
	if fc.JsonFile != nil && unset("json-file") {
		args.JsonFile = *fc.JsonFile
	}
	if fc.Log != nil && unset("log") {
		args.Log = *fc.Log
	}
	if fc.LogLevel != nil && unset("log-level") {
		args.LogLevel = *fc.LogLevel
	}
}
