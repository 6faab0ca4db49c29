// Package node turns installer settings into patch rule sets and Caddy
// candidate blocks for one cosmos node.
package node

import (
	"errors"
	"fmt"

	"grimm.is/nodecfg/internal/config"
	"grimm.is/nodecfg/internal/patch"
)

// ErrMissingTrust is returned by StateSyncRules without a trust point.
var ErrMissingTrust = errors.New("statesync needs a trust height and hash")

// TrustPeriod is written to [statesync] trust_period.
const TrustPeriod = "168h"

// Trust is the light-client trust point for statesync.
type Trust struct {
	Height int64
	Hash   string
}

// builder collects rules and keeps the first Add error.
type builder struct {
	rs  *patch.RuleSet
	err error
}

func newBuilder() *builder {
	return &builder{rs: patch.NewRuleSet()}
}

func (b *builder) add(section, key string, v patch.Value) {
	b.addPolicy(section, key, v, patch.PolicySetting)
}

func (b *builder) addPolicy(section, key string, v patch.Value, p patch.Policy) {
	if b.err != nil {
		return
	}
	b.err = b.rs.Add(patch.Rule{Section: section, Key: key, Value: v, Policy: p})
}

func (b *builder) done() (*patch.RuleSet, error) {
	return b.rs, b.err
}

// AppTOMLRules builds the app.toml rule set.
func AppTOMLRules(s *config.Settings) (*patch.RuleSet, error) {
	b := newBuilder()

	b.add("api", "enable", patch.Bool(true))
	b.add("api", "address", patch.String(fmt.Sprintf("tcp://0.0.0.0:%d", s.Ports.API)))

	b.add("grpc", "enable", patch.Bool(true))
	b.add("grpc", "address", patch.String(fmt.Sprintf("0.0.0.0:%d", s.Ports.GRPC)))

	// gRPC-web is never served.
	b.addPolicy("grpc-web", "enable", patch.Bool(false), patch.PolicyForced)

	// JSON-RPC keeps its own listen addresses; Caddy proxies to localhost.
	if s.JSONRPCSuppressed() {
		b.addPolicy("json-rpc", "enable", patch.Bool(false), patch.PolicySuppress)
	}

	return b.done()
}

// ConfigTOMLRules builds the config.toml rule set.
func ConfigTOMLRules(s *config.Settings) (*patch.RuleSet, error) {
	b := newBuilder()

	b.add("", "proxy_app", patch.String(fmt.Sprintf("tcp://127.0.0.1:%d", s.Ports.ProxyApp)))
	if s.Node.Moniker != "" {
		b.add("", "moniker", patch.String(s.Node.Moniker))
	}

	b.add("p2p", "laddr", patch.String(fmt.Sprintf("tcp://0.0.0.0:%d", s.Ports.P2P)))
	b.add("p2p", "persistent_peers", patch.String(s.Files.Peers))
	b.add("p2p", "seeds", patch.String(s.Files.Seeds))

	b.add("rpc", "laddr", patch.String(fmt.Sprintf("tcp://0.0.0.0:%d", s.Ports.RPC)))
	b.add("rpc", "pprof_laddr", patch.String(fmt.Sprintf("localhost:%d", s.Ports.PProf)))

	b.add("tx_index", "indexer", patch.String("kv"))

	b.add("instrumentation", "prometheus", patch.Bool(true))
	b.add("instrumentation", "prometheus_listen_addr", patch.String(fmt.Sprintf(":%d", s.Ports.Prometheus)))

	b.add("pruning", "pruning", patch.String(s.Pruning.Strategy))
	b.add("pruning", "pruning-keep-recent", patch.String(s.Pruning.KeepRecent))
	b.add("pruning", "pruning-keep-every", patch.String(s.Pruning.KeepEvery))
	b.add("pruning", "pruning-interval", patch.String(s.Pruning.Interval))

	return b.done()
}

// StateSyncRules builds the [statesync] rule set for config.toml. The
// statesync RPC endpoint is listed twice because cometbft requires two
// servers.
func StateSyncRules(s *config.Settings, trust Trust) (*patch.RuleSet, error) {
	if trust.Height <= 0 || trust.Hash == "" {
		return nil, ErrMissingTrust
	}
	if s.Sync.StateSyncRPC == "" {
		return nil, fmt.Errorf("statesync rpc endpoint is not set")
	}

	b := newBuilder()
	b.add("statesync", "enable", patch.Bool(true))
	b.add("statesync", "rpc_servers", patch.String(s.Sync.StateSyncRPC+","+s.Sync.StateSyncRPC))
	b.add("statesync", "trust_height", patch.Int(trust.Height))
	b.add("statesync", "trust_hash", patch.String(trust.Hash))
	b.add("statesync", "trust_period", patch.String(TrustPeriod))
	return b.done()
}
