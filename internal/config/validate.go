package config

import (
	"fmt"
	"strconv"
	"strings"

	"grimm.is/nodecfg/internal/validation"
)

// ValidationError represents a settings validation error.
type ValidationError struct {
	Field    string
	Message  string
	Severity string // "error" (default), "warning"
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any error-severity entries.
func (e ValidationErrors) HasErrors() bool {
	for _, v := range e {
		if v.Severity != "warning" {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity entries.
func (e ValidationErrors) Errors() ValidationErrors {
	var out ValidationErrors
	for _, v := range e {
		if v.Severity != "warning" {
			out = append(out, v)
		}
	}
	return out
}

// Warnings returns only the warning-severity entries.
func (e ValidationErrors) Warnings() ValidationErrors {
	var out ValidationErrors
	for _, v := range e {
		if v.Severity == "warning" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks the settings. It never stops at the first problem.
func (s *Settings) Validate() ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, s.validateNode()...)
	errs = append(errs, s.validatePorts()...)
	errs = append(errs, s.validatePruning()...)
	errs = append(errs, s.validatePeers()...)
	errs = append(errs, s.validateSync()...)
	errs = append(errs, s.validateCaddy()...)

	return errs
}

func (s *Settings) validateNode() ValidationErrors {
	var errs ValidationErrors

	if err := validation.ValidatePath(s.Node.Home); err != nil {
		errs = append(errs, ValidationError{Field: "node.node_home", Message: err.Error()})
	}
	if s.Node.ChainID != "" {
		if err := validation.ValidateIdentifier(s.Node.ChainID); err != nil {
			errs = append(errs, ValidationError{Field: "node.chain_id", Message: err.Error()})
		}
	}
	if s.Node.BinaryName != "" {
		if err := validation.ValidateIdentifier(s.Node.BinaryName); err != nil {
			errs = append(errs, ValidationError{Field: "node.binary_name", Message: err.Error()})
		}
	}
	if strings.ContainsAny(s.Node.Moniker, "\"\n\r") {
		errs = append(errs, ValidationError{Field: "node.moniker", Message: "moniker cannot contain quotes or newlines"})
	}

	return errs
}

type portField struct {
	field string
	port  int
}

func (s *Settings) validatePorts() ValidationErrors {
	var errs ValidationErrors

	ports := []portField{
		{"ports.rpc", s.Ports.RPC},
		{"ports.p2p", s.Ports.P2P},
		{"ports.api", s.Ports.API},
		{"ports.grpc", s.Ports.GRPC},
		{"ports.grpc_web", s.Ports.GRPCWeb},
		{"ports.prometheus", s.Ports.Prometheus},
		{"ports.pprof", s.Ports.PProf},
		{"ports.proxy_app", s.Ports.ProxyApp},
	}
	if s.JSONRPC.Enabled {
		ports = append(ports,
			portField{"ports.json_rpc", s.Ports.JSONRPC},
			portField{"ports.json_rpc_ws", s.Ports.JSONRPCWS},
		)
	}

	seen := make(map[int]string)
	for _, p := range ports {
		if err := validation.ValidatePortNumber(p.port); err != nil {
			errs = append(errs, ValidationError{Field: p.field, Message: err.Error()})
			continue
		}
		if other, dup := seen[p.port]; dup {
			errs = append(errs, ValidationError{
				Field:   p.field,
				Message: fmt.Sprintf("port %d already used by %s", p.port, other),
			})
			continue
		}
		seen[p.port] = p.field
	}

	return errs
}

func (s *Settings) validatePruning() ValidationErrors {
	var errs ValidationErrors

	if err := validation.ValidateAllowlist(s.Pruning.Strategy, PruningStrategies); err != nil {
		errs = append(errs, ValidationError{Field: "pruning.strategy", Message: err.Error()})
	}
	for _, f := range []struct {
		field, value string
	}{
		{"pruning.keep_recent", s.Pruning.KeepRecent},
		{"pruning.keep_every", s.Pruning.KeepEvery},
		{"pruning.interval", s.Pruning.Interval},
	} {
		if _, err := strconv.ParseUint(f.value, 10, 64); err != nil {
			errs = append(errs, ValidationError{Field: f.field, Message: fmt.Sprintf("must be a non-negative integer, got %q", f.value)})
		}
	}
	if s.Pruning.Strategy != "custom" && s.Pruning.Strategy != "" {
		d := Defaults().Pruning
		if s.Pruning.KeepRecent != d.KeepRecent || s.Pruning.KeepEvery != d.KeepEvery || s.Pruning.Interval != d.Interval {
			errs = append(errs, ValidationError{
				Field:    "pruning.strategy",
				Message:  fmt.Sprintf("keep_recent, keep_every and interval are only honoured with strategy \"custom\" (got %q)", s.Pruning.Strategy),
				Severity: "warning",
			})
		}
	}

	return errs
}

func (s *Settings) validatePeers() ValidationErrors {
	var errs ValidationErrors
	if err := validation.ValidatePeerList(s.Files.Peers); err != nil {
		errs = append(errs, ValidationError{Field: "files.peers", Message: err.Error()})
	}
	if err := validation.ValidatePeerList(s.Files.Seeds); err != nil {
		errs = append(errs, ValidationError{Field: "files.seeds", Message: err.Error()})
	}
	return errs
}

func (s *Settings) validateSync() ValidationErrors {
	var errs ValidationErrors

	if err := validation.ValidateAllowlist(s.Sync.Method, SyncMethods); err != nil {
		errs = append(errs, ValidationError{Field: "sync.method", Message: err.Error()})
		return errs
	}
	if s.Sync.Method == SyncStateSync {
		if s.Sync.StateSyncRPC == "" {
			errs = append(errs, ValidationError{Field: "sync.statesync_rpc", Message: "required when method is statesync"})
		} else if strings.ContainsAny(s.Sync.StateSyncRPC, "\"\n\r") {
			errs = append(errs, ValidationError{Field: "sync.statesync_rpc", Message: "cannot contain quotes or newlines"})
		}
		if s.Sync.StateSyncPeer == "" {
			errs = append(errs, ValidationError{Field: "sync.statesync_peer", Message: "required when method is statesync"})
		} else if err := validation.ValidatePeer(s.Sync.StateSyncPeer); err != nil {
			errs = append(errs, ValidationError{Field: "sync.statesync_peer", Message: err.Error()})
		}
	}
	if s.Sync.TrustHeight < 0 {
		errs = append(errs, ValidationError{Field: "sync.trust_height", Message: "cannot be negative"})
	}
	if s.Sync.TrustHash != "" {
		if err := validation.ValidateTrustHash(s.Sync.TrustHash); err != nil {
			errs = append(errs, ValidationError{Field: "sync.trust_hash", Message: err.Error()})
		}
	}

	return errs
}

func (s *Settings) validateCaddy() ValidationErrors {
	var errs ValidationErrors

	if s.ExposesAny() || s.Caddy.Domain != "" {
		if err := validation.ValidateDomain(s.Caddy.Domain); err != nil {
			errs = append(errs, ValidationError{Field: "caddy.domain", Message: err.Error()})
		}
		if err := validation.ValidatePath(s.Caddy.Caddyfile); err != nil {
			errs = append(errs, ValidationError{Field: "caddy.caddyfile", Message: err.Error()})
		}
	}
	if s.Caddy.ExposeJSONRPC != nil && *s.Caddy.ExposeJSONRPC && !s.JSONRPC.Enabled {
		errs = append(errs, ValidationError{
			Field:    "caddy.expose_json_rpc",
			Message:  "JSON-RPC is not enabled; nothing will be exposed",
			Severity: "warning",
		})
	}

	return errs
}
