package config

import (
	"fmt"
	"os"
	"strings"

	"paygate/contexts/payments/webhook-engine/application"
	"paygate/contexts/payments/webhook-engine/domain/entities"

	"gopkg.in/yaml.v3"
)

// gatewayProfileFile is the on-disk shape of an optional gateway profile.
// It lets a deployment override the callback vocabulary (new status codes,
// renamed signature field) without a rebuild.
type gatewayProfileFile struct {
	RequiredFields []string          `yaml:"required_fields"`
	StatusCodes    map[string]string `yaml:"status_codes"`
	SignatureField string            `yaml:"signature_field"`
}

// LoadGatewayProfile reads a YAML profile and merges it over the default
// vocabulary. An empty path returns the default profile unchanged.
func LoadGatewayProfile(path string) (application.Profile, error) {
	profile := application.DefaultProfile()
	if strings.TrimSpace(path) == "" {
		return profile, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return application.Profile{}, fmt.Errorf("read gateway profile %s: %w", path, err)
	}
	var file gatewayProfileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return application.Profile{}, fmt.Errorf("parse gateway profile %s: %w", path, err)
	}

	if len(file.RequiredFields) > 0 {
		profile.RequiredFields = file.RequiredFields
	}
	if len(file.StatusCodes) > 0 {
		codes := make(map[string]entities.PaymentStatus, len(file.StatusCodes))
		for code, status := range file.StatusCodes {
			parsed, err := parseStatus(status)
			if err != nil {
				return application.Profile{}, fmt.Errorf("gateway profile %s: %w", path, err)
			}
			codes[strings.TrimSpace(code)] = parsed
		}
		profile.StatusCodes = codes
	}
	if strings.TrimSpace(file.SignatureField) != "" {
		profile.SignatureField = strings.TrimSpace(file.SignatureField)
	}
	return profile, nil
}

func parseStatus(value string) (entities.PaymentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "PENDING":
		return entities.StatusPending, nil
	case "SUCCESS":
		return entities.StatusSuccess, nil
	case "FAILED":
		return entities.StatusFailed, nil
	case "UNKNOWN":
		return entities.StatusUnknown, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", value)
	}
}
