package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"paygate/contexts/payments/webhook-engine/domain/entities"
	"paygate/internal/platform/config"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile fixture: %v", err)
	}
	return path
}

func TestLoadGatewayProfileEmptyPathReturnsDefault(t *testing.T) {
	profile, err := config.LoadGatewayProfile("")
	if err != nil {
		t.Fatalf("load default profile failed: %v", err)
	}
	if len(profile.StatusCodes) != 4 {
		t.Fatalf("default status codes = %d, want 4", len(profile.StatusCodes))
	}
	if profile.StatusCodes["1"] != entities.StatusSuccess {
		t.Fatalf("default code 1 = %s, want SUCCESS", profile.StatusCodes["1"])
	}
}

func TestLoadGatewayProfileMergesOverrides(t *testing.T) {
	path := writeProfile(t, `
required_fields:
  - billcode
  - status
  - refno
status_codes:
  "1": success
  "2": pending
  "3": failed
  "5": failed
signature_field: x-callback-signature
`)
	profile, err := config.LoadGatewayProfile(path)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if len(profile.RequiredFields) != 3 || profile.RequiredFields[2] != "refno" {
		t.Fatalf("required fields = %v", profile.RequiredFields)
	}
	if profile.StatusCodes["5"] != entities.StatusFailed {
		t.Fatalf("overridden code 5 = %s, want FAILED", profile.StatusCodes["5"])
	}
	if _, known := profile.StatusCodes["4"]; known {
		t.Fatalf("override did not replace the default vocabulary")
	}
	if profile.SignatureField != "x-callback-signature" {
		t.Fatalf("signature field = %q", profile.SignatureField)
	}
}

func TestLoadGatewayProfilePartialOverrideKeepsDefaults(t *testing.T) {
	path := writeProfile(t, `signature_field: sig`)
	profile, err := config.LoadGatewayProfile(path)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.SignatureField != "sig" {
		t.Fatalf("signature field = %q, want sig", profile.SignatureField)
	}
	if len(profile.StatusCodes) != 4 {
		t.Fatalf("default status codes lost on partial override")
	}
}

func TestLoadGatewayProfileRejectsUnknownStatusNames(t *testing.T) {
	path := writeProfile(t, `
status_codes:
  "1": settled
`)
	if _, err := config.LoadGatewayProfile(path); err == nil {
		t.Fatalf("unknown status name accepted")
	}
}

func TestLoadGatewayProfileMissingFile(t *testing.T) {
	if _, err := config.LoadGatewayProfile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing profile file accepted")
	}
}
