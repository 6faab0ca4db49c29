package brand

import (
	"os"
	"testing"
)

func TestGet(t *testing.T) {
	b := Get()
	if b.Name == "" {
		t.Error("Brand name should not be empty")
	}
	if Version == "" {
		t.Error("Global Version should be initialized (to dev default)")
	}
	if BinaryName != "nodecfg" {
		t.Errorf("BinaryName = %q, want nodecfg", BinaryName)
	}
	if CaddyfilePath == "" {
		t.Error("CaddyfilePath should be initialized")
	}
}

func TestGetDirectories(t *testing.T) {
	cleanEnv := func() {
		os.Unsetenv(ConfigEnvPrefix + "_PREFIX")
		os.Unsetenv(ConfigEnvPrefix + "_CONFIG_DIR")
		os.Unsetenv(ConfigEnvPrefix + "_STATE_DIR")
	}
	cleanEnv()
	defer cleanEnv()

	if GetConfigDir() != DefaultConfigDir {
		t.Errorf("Expected default config dir %s, got %s", DefaultConfigDir, GetConfigDir())
	}
	if GetStateDir() != DefaultStateDir {
		t.Errorf("Expected default state dir %s, got %s", DefaultStateDir, GetStateDir())
	}

	os.Setenv(ConfigEnvPrefix+"_PREFIX", "/tmp/nodecfg")
	if GetConfigDir() != "/tmp/nodecfg/config" {
		t.Errorf("Expected prefix config dir, got %s", GetConfigDir())
	}
	if GetLedgerPath() != "/tmp/nodecfg/state/"+LedgerFileName {
		t.Errorf("Expected prefix ledger path, got %s", GetLedgerPath())
	}

	// Direct override wins over prefix
	os.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "/custom/config")
	if GetSettingsPath() != "/custom/config/"+SettingsFileName {
		t.Errorf("Expected custom settings path, got %s", GetSettingsPath())
	}
}
