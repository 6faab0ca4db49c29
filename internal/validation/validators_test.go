package validation

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"chain id", "cosmoshub-4", false},
		{"evm chain id", "evmos_9001-2", false},
		{"binary", "gaiad", false},
		{"dotted", "my.chain", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 256), true},
		{"space", "gaia d", true},
		{"semicolon injection", "gaiad;rm", true},
		{"dollar sign", "gaiad$HOME", true},
		{"backtick", "`whoami`", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"example.com", false},
		{"node.example.co.uk", false},
		{"example.com.", false},
		{"", true},
		{"localhost", true},
		{"-bad.example.com", true},
		{"bad_label.example.com", true},
		{"exa mple.com", true},
	}
	for _, tt := range tests {
		err := ValidateDomain(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDomain(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"/root/.gaia/config/app.toml", false},
		{"", true},
		{"config/app.toml", true},
		{"/etc/caddy/\x00Caddyfile", true},
	}
	for _, tt := range tests {
		err := ValidatePath(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidatePortNumber(t *testing.T) {
	for _, p := range []int{1, 1317, 26657, 65535} {
		if err := ValidatePortNumber(p); err != nil {
			t.Errorf("ValidatePortNumber(%d) = %v", p, err)
		}
	}
	for _, p := range []int{0, -1, 65536} {
		if err := ValidatePortNumber(p); err == nil {
			t.Errorf("ValidatePortNumber(%d) should fail", p)
		}
	}
}

func TestValidatePeerList(t *testing.T) {
	id := strings.Repeat("ab", 20)
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"single", id + "@1.2.3.4:26656", false},
		{"multiple with spaces", id + "@seed.example.com:26656, " + id + "@[::1]:26656", false},
		{"missing id", "1.2.3.4:26656", true},
		{"short id", "abc@1.2.3.4:26656", true},
		{"missing port", id + "@1.2.3.4", true},
		{"bad port", id + "@1.2.3.4:99999", true},
		{"trailing comma", id + "@1.2.3.4:26656,", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePeerList(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePeerList(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTrustHash(t *testing.T) {
	if err := ValidateTrustHash(strings.Repeat("A1", 32)); err != nil {
		t.Errorf("valid hash rejected: %v", err)
	}
	if err := ValidateTrustHash("abc"); err == nil {
		t.Error("short hash accepted")
	}
	if err := ValidateTrustHash(strings.Repeat("zz", 32)); err == nil {
		t.Error("non-hex hash accepted")
	}
}

func TestValidateAllowlist(t *testing.T) {
	allowed := []string{"default", "nothing", "everything", "custom"}
	if err := ValidateAllowlist("custom", allowed); err != nil {
		t.Error(err)
	}
	if err := ValidateAllowlist("some", allowed); err == nil {
		t.Error("expected error for value outside allowlist")
	}
}

func TestCheckTOML(t *testing.T) {
	good := "proxy_app = \"tcp://127.0.0.1:26658\"\n\n[rpc]\nladdr = \"tcp://0.0.0.0:26657\"\n"
	if err := CheckTOML([]byte(good)); err != nil {
		t.Errorf("CheckTOML(good) = %v", err)
	}
	bad := "[rpc]\nladdr = tcp://0.0.0.0:26657\n"
	if err := CheckTOML([]byte(bad)); err == nil {
		t.Error("CheckTOML(bad) should fail")
	}
}
