// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Version is the XCM protocol version tag carried by an envelope.
type Version string

const (
	VersionV3 Version = "V3"
	VersionV4 Version = "V4"
)

// ParseVersion normalizes and parses a version token.
func ParseVersion(s string) (Version, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "V3":
		return VersionV3, nil
	case "V4":
		return VersionV4, nil
	default:
		return "", NewVersionMismatch(fmt.Sprintf("unsupported XCM version: %s", s))
	}
}

// Matches reports whether the version equals the configured version token,
// case-insensitively.
func (v Version) Matches(configured string) bool {
	return strings.EqualFold(string(v), strings.TrimSpace(configured))
}

func (v Version) String() string {
	return string(v)
}

func (v *Version) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
