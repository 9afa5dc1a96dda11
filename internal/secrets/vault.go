// Package secrets loads startup secrets (pseudonymisation salt, Image
// Store credentials, export destination credentials) from HashiCorp
// Vault's KV v2 engine.
package secrets

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// Manager wraps the Vault API client for reading secrets.
type Manager struct {
	client *api.Client
}

// NewManager creates a Vault client pointed at the given address and
// authenticated with the provided token.
func NewManager(address, token string) (*Manager, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client initialization failed: %w", err)
	}
	client.SetToken(token)

	return &Manager{client: client}, nil
}

// get reads a secret at the given path and returns the raw data map. For
// KV v2 backends the caller must unwrap the nested "data" key.
func (m *Manager) get(path string) (map[string]interface{}, error) {
	secret, err := m.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no data found at %s", path)
	}
	return secret.Data, nil
}

// getKV2 reads from a KV v2 backend and returns the inner "data" map,
// unwrapping the v2 envelope.
func (m *Manager) getKV2(path string) (map[string]interface{}, error) {
	raw, err := m.get(path)
	if err != nil {
		return nil, err
	}
	data, ok := raw["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected data format at %s", path)
	}
	return data, nil
}

// PIXLSecrets is every startup secret a PIXL process's vault path may
// carry, unpacked in one round trip so binaries never touch the raw KV2
// map directly. Not every process populates every field: anon-callback
// requires Salt (checked by the caller, since only it needs to fatal on
// a missing one); imaging-worker and export-worker leave it empty.
type PIXLSecrets struct {
	// Salt is the pseudonymisation salt (PIXL_SALT) the Anonymisation
	// Engine mixes into every hash-based tag-scheme op.
	Salt []byte

	// ImageStoreUsername, ImageStorePassword and ImageStoreAET
	// authenticate the imaging-worker's calls to the raw Image Store.
	ImageStoreUsername string
	ImageStorePassword string
	ImageStoreAET      string

	// ExportUsername, ExportPassword and ExportAPIToken authenticate
	// export-worker's uploads to a project's configured destination.
	ExportUsername string
	ExportPassword string
	ExportAPIToken string
}

// LoadPIXLSecrets reads path from the KV v2 backend and unpacks the
// secrets any PIXL process might need into a typed PIXLSecrets. A field
// whose key is absent from the vault path is left at its zero value
// (ImageStoreAET defaults to "PIXL" instead, the Image Store's own
// default AET).
func (m *Manager) LoadPIXLSecrets(path string) (PIXLSecrets, error) {
	data, err := m.getKV2(path)
	if err != nil {
		return PIXLSecrets{}, err
	}

	return PIXLSecrets{
		Salt:               []byte(stringDefault(data, "PIXL_SALT", "")),
		ImageStoreUsername: stringDefault(data, "IMAGE_STORE_USERNAME", ""),
		ImageStorePassword: stringDefault(data, "IMAGE_STORE_PASSWORD", ""),
		ImageStoreAET:      stringDefault(data, "IMAGE_STORE_AET", "PIXL"),
		ExportUsername:     stringDefault(data, "EXPORT_USERNAME", ""),
		ExportPassword:     stringDefault(data, "EXPORT_PASSWORD", ""),
		ExportAPIToken:     stringDefault(data, "EXPORT_API_TOKEN", ""),
	}, nil
}

// stringDefault extracts an optional string value from a KV2 data map,
// falling back to def when the key is absent or not a string.
func stringDefault(data map[string]interface{}, key, def string) string {
	v, ok := data[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
