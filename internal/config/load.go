package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v2"
)

// File is the on-disk shape of a settings file. Every field is optional;
// nil means "keep the default".
type File struct {
	Node    *NodeBlock    `hcl:"node,block" yaml:"node"`
	Files   *FilesBlock   `hcl:"files,block" yaml:"files"`
	Pruning *PruningBlock `hcl:"pruning,block" yaml:"pruning"`
	Ports   *PortsBlock   `hcl:"ports,block" yaml:"ports"`
	Sync    *SyncBlock    `hcl:"sync,block" yaml:"sync"`
	JSONRPC *JSONRPCBlock `hcl:"json_rpc,block" yaml:"json_rpc"`
	Caddy   *CaddyBlock   `hcl:"caddy,block" yaml:"caddy"`

	// Written by the interactive installer; accepted and ignored.
	Wasm    *WasmBlock    `yaml:"wasm"`
	Install *InstallBlock `yaml:"install"`
}

type NodeBlock struct {
	ChainID    *string `hcl:"chain_id,optional" yaml:"chain_id"`
	BinaryName *string `hcl:"binary_name,optional" yaml:"binary_name"`
	Home       *string `hcl:"node_home,optional" yaml:"node_home"`
	Moniker    *string `hcl:"moniker,optional" yaml:"moniker"`

	BinaryPath *string `yaml:"binary_path"`
	GoVersion  *string `yaml:"go_version"`
}

type FilesBlock struct {
	Peers *string `hcl:"peers,optional" yaml:"peers"`
	Seeds *string `hcl:"seeds,optional" yaml:"seeds"`

	GenesisURL  *string `yaml:"genesis_url"`
	AddrbookURL *string `yaml:"addrbook_url"`
}

type PruningBlock struct {
	Strategy   *string `hcl:"strategy,optional" yaml:"strategy"`
	KeepRecent *string `hcl:"keep_recent,optional" yaml:"keep_recent"`
	KeepEvery  *string `hcl:"keep_every,optional" yaml:"keep_every"`
	Interval   *string `hcl:"interval,optional" yaml:"interval"`
}

type PortsBlock struct {
	RPC        *int `hcl:"rpc,optional" yaml:"rpc"`
	P2P        *int `hcl:"p2p,optional" yaml:"p2p"`
	API        *int `hcl:"api,optional" yaml:"api"`
	GRPC       *int `hcl:"grpc,optional" yaml:"grpc"`
	GRPCWeb    *int `hcl:"grpc_web,optional" yaml:"grpc_web"`
	Prometheus *int `hcl:"prometheus,optional" yaml:"prometheus"`
	PProf      *int `hcl:"pprof,optional" yaml:"pprof"`
	ProxyApp   *int `hcl:"proxy_app,optional" yaml:"proxy_app"`
	JSONRPC    *int `hcl:"json_rpc,optional" yaml:"json_rpc"`
	JSONRPCWS  *int `hcl:"json_rpc_ws,optional" yaml:"json_rpc_ws"`
}

type SyncBlock struct {
	Method        *string `hcl:"method,optional" yaml:"method"`
	StateSyncRPC  *string `hcl:"statesync_rpc,optional" yaml:"statesync_rpc"`
	StateSyncPeer *string `hcl:"statesync_peer,optional" yaml:"statesync_peer"`
	TrustHeight   *int64  `hcl:"trust_height,optional" yaml:"trust_height"`
	TrustHash     *string `hcl:"trust_hash,optional" yaml:"trust_hash"`

	SnapshotURL *string `yaml:"snapshot_url"`
}

type JSONRPCBlock struct {
	Enabled *bool `hcl:"enabled,optional" yaml:"enabled"`
}

type CaddyBlock struct {
	Domain        *string `hcl:"domain,optional" yaml:"domain"`
	Caddyfile     *string `hcl:"caddyfile,optional" yaml:"caddyfile"`
	ExposeRPC     *bool   `hcl:"expose_rpc,optional" yaml:"expose_rpc"`
	ExposeAPI     *bool   `hcl:"expose_api,optional" yaml:"expose_api"`
	ExposeGRPC    *bool   `hcl:"expose_grpc,optional" yaml:"expose_grpc"`
	ExposeJSONRPC *bool   `hcl:"expose_json_rpc,optional" yaml:"expose_json_rpc"`

	DomainPattern *string `yaml:"domain_pattern"`
}

// WasmBlock and InstallBlock mirror sections of installer-written YAML
// that have no effect on the patched files.
type WasmBlock struct {
	Enabled *bool   `yaml:"enabled"`
	URL     *string `yaml:"url"`
}

type InstallBlock struct {
	Prerequisites *bool `yaml:"prerequisites"`
	NodeSetup     *bool `yaml:"node_setup"`
	Cosmovisor    *bool `yaml:"cosmovisor"`
	SyncNode      *bool `yaml:"sync_node"`
	Caddy         *bool `yaml:"caddy"`
}

// LoadFile reads a settings file (.hcl, .yaml or .yml) over Defaults.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes data, choosing the format from filename's extension.
func Parse(data []byte, filename string) (*Settings, error) {
	var f File
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		if err := decodeHCL(data, filename, &f); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML %s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("unsupported settings format %q (want .hcl, .yaml or .yml)", filepath.Ext(filename))
	}

	s := Defaults()
	f.Update(s)
	return s, nil
}

func decodeHCL(data []byte, filename string, f *File) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}

	diags = gohcl.DecodeBody(file.Body, evalContext(), f)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	return nil
}

// evalContext exposes the environment as env.NAME.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !hclsyntaxIdent(k) {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}

// hclsyntaxIdent reports whether name can be used in env.NAME traversals.
func hclsyntaxIdent(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

// Update copies every set field onto s.
func (f *File) Update(s *Settings) {
	if b := f.Node; b != nil {
		setString(&s.Node.ChainID, b.ChainID)
		setString(&s.Node.BinaryName, b.BinaryName)
		setString(&s.Node.Home, b.Home)
		setString(&s.Node.Moniker, b.Moniker)
	}
	if b := f.Files; b != nil {
		setString(&s.Files.Peers, b.Peers)
		setString(&s.Files.Seeds, b.Seeds)
	}
	if b := f.Pruning; b != nil {
		setString(&s.Pruning.Strategy, b.Strategy)
		setString(&s.Pruning.KeepRecent, b.KeepRecent)
		setString(&s.Pruning.KeepEvery, b.KeepEvery)
		setString(&s.Pruning.Interval, b.Interval)
	}
	if b := f.Ports; b != nil {
		setInt(&s.Ports.RPC, b.RPC)
		setInt(&s.Ports.P2P, b.P2P)
		setInt(&s.Ports.API, b.API)
		setInt(&s.Ports.GRPC, b.GRPC)
		setInt(&s.Ports.GRPCWeb, b.GRPCWeb)
		setInt(&s.Ports.Prometheus, b.Prometheus)
		setInt(&s.Ports.PProf, b.PProf)
		setInt(&s.Ports.ProxyApp, b.ProxyApp)
		setInt(&s.Ports.JSONRPC, b.JSONRPC)
		setInt(&s.Ports.JSONRPCWS, b.JSONRPCWS)
	}
	if b := f.Sync; b != nil {
		setString(&s.Sync.Method, b.Method)
		setString(&s.Sync.StateSyncRPC, b.StateSyncRPC)
		setString(&s.Sync.StateSyncPeer, b.StateSyncPeer)
		if b.TrustHeight != nil {
			s.Sync.TrustHeight = *b.TrustHeight
		}
		setString(&s.Sync.TrustHash, b.TrustHash)
	}
	if b := f.JSONRPC; b != nil {
		setBool(&s.JSONRPC.Enabled, b.Enabled)
	}
	if b := f.Caddy; b != nil {
		setString(&s.Caddy.Domain, b.Domain)
		setString(&s.Caddy.Caddyfile, b.Caddyfile)
		setBool(&s.Caddy.ExposeRPC, b.ExposeRPC)
		setBool(&s.Caddy.ExposeAPI, b.ExposeAPI)
		setBool(&s.Caddy.ExposeGRPC, b.ExposeGRPC)
		if b.ExposeJSONRPC != nil {
			v := *b.ExposeJSONRPC
			s.Caddy.ExposeJSONRPC = &v
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
