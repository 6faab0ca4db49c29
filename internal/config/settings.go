package config

import (
	"path/filepath"

	"grimm.is/nodecfg/internal/brand"
)

// Pruning strategies understood by cosmos-sdk.
var PruningStrategies = []string{"default", "nothing", "everything", "custom"}

// Sync methods.
const (
	SyncNone      = "none"
	SyncSnapshot  = "snapshot"
	SyncStateSync = "statesync"
)

// SyncMethods lists the accepted sync methods.
var SyncMethods = []string{SyncNone, SyncSnapshot, SyncStateSync}

// Settings is the fully resolved installer configuration.
type Settings struct {
	Node    NodeSettings
	Files   FileSettings
	Pruning PruningSettings
	Ports   PortSettings
	Sync    SyncSettings
	JSONRPC JSONRPCSettings
	Caddy   CaddySettings
}

// NodeSettings identifies the node.
type NodeSettings struct {
	ChainID    string
	BinaryName string
	Home       string
	Moniker    string
}

// FileSettings holds peer lists written to config.toml.
type FileSettings struct {
	Peers string
	Seeds string
}

// PruningSettings are kept as strings; config.toml stores them quoted.
type PruningSettings struct {
	Strategy   string
	KeepRecent string
	KeepEvery  string
	Interval   string
}

// PortSettings are the listen ports of the node's services.
type PortSettings struct {
	RPC        int
	P2P        int
	API        int
	GRPC       int
	GRPCWeb    int
	Prometheus int
	PProf      int
	ProxyApp   int
	JSONRPC    int
	JSONRPCWS  int
}

// SyncSettings configure statesync. TrustHeight and TrustHash may also be
// supplied on the command line.
type SyncSettings struct {
	Method        string
	StateSyncRPC  string
	StateSyncPeer string
	TrustHeight   int64
	TrustHash     string
}

// JSONRPCSettings is the EVM JSON-RPC server some chains ship.
type JSONRPCSettings struct {
	Enabled bool
}

// CaddySettings control which endpoints are published.
type CaddySettings struct {
	Domain     string
	Caddyfile  string
	ExposeRPC  bool
	ExposeAPI  bool
	ExposeGRPC bool
	// ExposeJSONRPC is nil when the settings say nothing. An explicit
	// false also disables the JSON-RPC server in app.toml.
	ExposeJSONRPC *bool
}

// Defaults returns the built-in settings.
func Defaults() *Settings {
	return &Settings{
		Pruning: PruningSettings{
			Strategy:   "default",
			KeepRecent: "100",
			KeepEvery:  "0",
			Interval:   "10",
		},
		Ports: PortSettings{
			RPC:        26657,
			P2P:        26656,
			API:        1317,
			GRPC:       9090,
			GRPCWeb:    9091,
			Prometheus: 26660,
			PProf:      6060,
			ProxyApp:   26658,
			JSONRPC:    8545,
			JSONRPCWS:  8546,
		},
		Sync: SyncSettings{
			Method: SyncNone,
		},
		Caddy: CaddySettings{
			Caddyfile: brand.CaddyfilePath,
		},
	}
}

// ConfigDir is <home>/config.
func (s *Settings) ConfigDir() string {
	return filepath.Join(s.Node.Home, "config")
}

// AppTOMLPath is the cosmos-sdk application config.
func (s *Settings) AppTOMLPath() string {
	return filepath.Join(s.ConfigDir(), "app.toml")
}

// ConfigTOMLPath is the cometbft config.
func (s *Settings) ConfigTOMLPath() string {
	return filepath.Join(s.ConfigDir(), "config.toml")
}

// JSONRPCSuppressed reports whether settings explicitly turn JSON-RPC off.
func (s *Settings) JSONRPCSuppressed() bool {
	return s.Caddy.ExposeJSONRPC != nil && !*s.Caddy.ExposeJSONRPC
}

// JSONRPCExposed reports whether JSON-RPC is both enabled and published.
func (s *Settings) JSONRPCExposed() bool {
	return s.JSONRPC.Enabled && s.Caddy.ExposeJSONRPC != nil && *s.Caddy.ExposeJSONRPC
}

// ExposesAny reports whether any endpoint is published through Caddy.
func (s *Settings) ExposesAny() bool {
	return s.Caddy.ExposeRPC || s.Caddy.ExposeAPI || s.Caddy.ExposeGRPC || s.JSONRPCExposed()
}

// StateSyncConfigured reports whether statesync was requested with the
// endpoints it needs.
func (s *Settings) StateSyncConfigured() bool {
	return s.Sync.Method == SyncStateSync && s.Sync.StateSyncRPC != "" && s.Sync.StateSyncPeer != ""
}
