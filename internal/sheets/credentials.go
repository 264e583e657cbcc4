package sheets

import (
	"encoding/json"
	"fmt"
	"os"
)

// serviceAccount is the subset of the credential structure we validate.
type serviceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// LoadCredentials produces the service-account credential blob from the
// first available source: an explicit JSON blob (environment or config) or
// a local credential file. The blob is validated for shape, not for
// authenticity; the API client discovers bad keys on first call.
func LoadCredentials(jsonBlob, filePath string) ([]byte, error) {
	if jsonBlob != "" {
		creds := []byte(jsonBlob)
		if err := validateCredentials(creds); err != nil {
			return nil, err
		}
		return creds, nil
	}

	if filePath != "" {
		creds, err := os.ReadFile(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrNoCredentials, filePath)
			}
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
		if err := validateCredentials(creds); err != nil {
			return nil, err
		}
		return creds, nil
	}

	return nil, ErrNoCredentials
}

func validateCredentials(blob []byte) error {
	var sa serviceAccount
	if err := json.Unmarshal(blob, &sa); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if sa.Type != "service_account" {
		return fmt.Errorf("%w: type is %q, want service_account", ErrInvalidCredentials, sa.Type)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return fmt.Errorf("%w: client_email and private_key are required", ErrInvalidCredentials)
	}
	return nil
}
