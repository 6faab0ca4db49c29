package cmd

import (
	"path/filepath"
	"testing"

	"grimm.is/nodecfg/internal/testutil"
)

func TestRunCheck_ValidSettings(t *testing.T) {
	tmpDir := t.TempDir()
	settingsPath := filepath.Join(tmpDir, "valid.hcl")

	testutil.WriteFile(t, settingsPath, `
node {
  chain_id  = "cosmoshub-4"
  node_home = "/root/.gaia"
}

sync {
  method         = "statesync"
  statesync_rpc  = "https://rpc.example.org:443"
  statesync_peer = "`+testPeer+`"
}

caddy {
  domain      = "example.com"
  expose_rpc  = true
  expose_grpc = true
}
`)

	if err := RunCheck(settingsPath, false); err != nil {
		t.Errorf("RunCheck() error = %v, want nil", err)
	}
	if err := RunCheck(settingsPath, true); err != nil {
		t.Errorf("RunCheck(verbose) error = %v, want nil", err)
	}
}

func TestRunCheck_ValidYAML(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "node.yaml")
	testutil.WriteFile(t, settingsPath, "node:\n  node_home: /root/.gaia\n  binary_name: gaiad\n")

	if err := RunCheck(settingsPath, true); err != nil {
		t.Errorf("RunCheck() error = %v, want nil", err)
	}
}

func TestRunCheck_InvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "syntax",
			file: "broken.hcl",
			content: `
node {
    # Missing closing brace
`,
		},
		{
			name:    "relative home",
			file:    "relative.hcl",
			content: "node {\n  node_home = \"gaia\"\n}\n",
		},
		{
			name:    "port out of range",
			file:    "ports.hcl",
			content: "node {\n  node_home = \"/root/.gaia\"\n}\nports {\n  api = 0\n}\n",
		},
		{
			name:    "exposed without domain",
			file:    "caddy.hcl",
			content: "node {\n  node_home = \"/root/.gaia\"\n}\ncaddy {\n  expose_api = true\n}\n",
		},
		{
			name:    "unknown yaml key",
			file:    "unknown.yaml",
			content: "node:\n  node_home: /root/.gaia\n  colour: blue\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settingsPath := filepath.Join(t.TempDir(), tt.file)
			testutil.WriteFile(t, settingsPath, tt.content)

			if err := RunCheck(settingsPath, false); err == nil {
				t.Error("RunCheck() error = nil, want error")
			}
		})
	}
}

func TestRunCheck_MissingFile(t *testing.T) {
	if err := RunCheck(filepath.Join(t.TempDir(), "missing.hcl"), false); err == nil {
		t.Error("RunCheck() error = nil, want error")
	}
	if err := RunCheck("", false); err == nil {
		t.Error("RunCheck(\"\") error = nil, want usage error")
	}
}
