package validation

import (
	"encoding/hex"
	"fmt"
	"net"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

var (
	// Valid identifier: chain IDs, binary names, monikers without spaces.
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	// RFC 1123 label
	labelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

	// Tendermint node IDs are 20-byte hex addresses.
	nodeIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

	// Dangerous characters that should never appear in identifiers
	dangerousChars = []string{";", "|", "&", "$", "`", "(", ")", "<", ">", "\\", "\"", "'", "\n", "\r"}
)

// ValidateIdentifier validates a general identifier (chain ID, binary name).
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(id) > 255 {
		return fmt.Errorf("identifier too long (max 255 characters)")
	}

	if !identifierRegex.MatchString(id) {
		return fmt.Errorf("invalid identifier: %s (must be alphanumeric with -_.)", id)
	}

	for _, char := range dangerousChars {
		if strings.Contains(id, char) {
			return fmt.Errorf("identifier contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateDomain validates a DNS name used as a Caddy site suffix.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if len(domain) > 253 {
		return fmt.Errorf("domain too long (max 253 characters)")
	}
	labels := strings.Split(strings.TrimSuffix(domain, "."), ".")
	if len(labels) < 2 {
		return fmt.Errorf("invalid domain: %s (needs at least two labels)", domain)
	}
	for _, l := range labels {
		if !labelRegex.MatchString(l) {
			return fmt.Errorf("invalid domain label %q in %s", l, domain)
		}
	}
	return nil
}

// ValidatePath validates a file path. Relative paths are rejected because
// the patcher writes backups next to the target.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("null byte in path")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	return nil
}

// ValidateAllowlist checks if a value is in an allowed list
func ValidateAllowlist(value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("value not in allowlist: %s (must be one of: %s)", value, strings.Join(allowed, ", "))
}

// ValidatePortNumber validates a port number
func ValidatePortNumber(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be 1-65535)", port)
	}
	return nil
}

// ValidatePeer validates a single "nodeid@host:port" peer address.
func ValidatePeer(peer string) error {
	id, addr, ok := strings.Cut(peer, "@")
	if !ok {
		return fmt.Errorf("invalid peer %q: missing node ID", peer)
	}
	if !nodeIDRegex.MatchString(id) {
		return fmt.Errorf("invalid peer %q: node ID must be 40 hex characters", peer)
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid peer %q: %w", peer, err)
	}
	if host == "" {
		return fmt.Errorf("invalid peer %q: empty host", peer)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid peer %q: port is not a number", peer)
	}
	return ValidatePortNumber(n)
}

// ValidatePeerList validates a comma-separated peer list. Empty is allowed.
func ValidatePeerList(list string) error {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	for _, p := range strings.Split(list, ",") {
		if err := ValidatePeer(strings.TrimSpace(p)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTrustHash validates a statesync trust hash (hex SHA-256).
func ValidateTrustHash(h string) error {
	if len(h) != 64 {
		return fmt.Errorf("invalid trust hash: want 64 hex characters, got %d", len(h))
	}
	if _, err := hex.DecodeString(h); err != nil {
		return fmt.Errorf("invalid trust hash: %w", err)
	}
	return nil
}

// CheckTOML reports whether data still parses as TOML.
func CheckTOML(data []byte) error {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("not valid TOML: %w", err)
	}
	return nil
}
