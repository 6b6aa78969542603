package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// tokenFile is the on-disk shape of the persisted token cache: a single
// JSON object holding the opaque device-code-grant token.
type tokenFile struct {
	Token string `json:"token"`
}

// readTokenFile loads the cached token, returning ("", false, nil) if the
// file is absent. A malformed file is treated the same as absent — the
// state machine falls through to the Start phase rather than failing
// outright.
func readTokenFile(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read token file %s: %w", path, err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil || tf.Token == "" {
		return "", false, nil
	}
	return tf.Token, true, nil
}

// writeTokenFile persists the token atomically: write to a temp file in the
// same directory, then rename over the target, so a partial write never
// leaves a corrupt file in place.
func writeTokenFile(path, token string) error {
	data, err := json.Marshal(tokenFile{Token: token})
	if err != nil {
		return fmt.Errorf("marshal token file: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".hubagent-token-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp token file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("chmod temp token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename token file into place: %w", err)
	}
	return nil
}
