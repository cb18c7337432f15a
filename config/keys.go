// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"

	// Top-level configuration keys
	LogLevelKey    = "log-level"
	APIPortKey     = "api-port"
	MetricsPortKey = "metrics-port"
	ChainCountKey  = "chain-count"
	XCMVersionKey  = "xcm-version"
	ChainKeysKey   = "chain-keys"
)

const (
	defaultLogLevel    = "info"
	defaultAPIPort     = uint16(8080)
	defaultMetricsPort = uint16(9090)
	defaultChainCount  = uint32(3)
	defaultXCMVersion  = "V3"

	// firstParaID is where derived parachain ids start when no explicit
	// chain keys are configured: chain-count N registers ids
	// firstParaID .. firstParaID+N-1.
	firstParaID = uint32(1000)
)
