// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleAppTOML is a trimmed cosmos-sdk app.toml as written by "init".
const SampleAppTOML = `###############################################################################
###                           Base Configuration                            ###
###############################################################################

minimum-gas-prices = "0.0025uatom"

[api]

# Enable defines if the API server should be enabled.
enable = false

# Swagger defines if swagger documentation should automatically be registered.
swagger = false

# Address defines the API server to listen on.
address = "tcp://localhost:1317"

[grpc]

# Enable defines if the gRPC server should be enabled.
enable = true

# Address defines the gRPC server address to bind to.
address = "localhost:9090"

[grpc-web]

# GRPCWebEnable defines if the gRPC-web should be enabled.
enable = true

[json-rpc]

# Enable defines if the JSON-RPC server should be enabled.
enable = true

# Address defines the EVM RPC HTTP server address to bind to.
address = "127.0.0.1:8545"

# Address defines the EVM WebSocket server address to bind to.
ws-address = "127.0.0.1:8546"
`

// SampleConfigTOML is a trimmed cometbft config.toml as written by "init".
const SampleConfigTOML = `# This is a TOML config file.
proxy_app = "tcp://127.0.0.1:26658"
moniker = "default"

[rpc]
laddr = "tcp://127.0.0.1:26657"
cors_allowed_origins = []
pprof_laddr = ""

[p2p]
laddr = "tcp://0.0.0.0:26656"
external_address = ""
seeds = ""
persistent_peers = ""

[mempool]
size = 5000

[statesync]
enable = false
rpc_servers = ""
trust_height = 0
trust_hash = ""
trust_period = "112h0m0s"

[tx_index]
indexer = "null"

[instrumentation]
prometheus = false
prometheus_listen_addr = ":26660"
`

// NodeHome creates a node home directory holding config/app.toml and
// config/config.toml with the sample contents and returns its path.
func NodeHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	WriteFile(t, filepath.Join(home, "config", "app.toml"), SampleAppTOML)
	WriteFile(t, filepath.Join(home, "config", "config.toml"), SampleConfigTOML)
	return home
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the content of path.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
