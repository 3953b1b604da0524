package github

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/shran-labs/shran/internal/fsutil"
)

// EnvToken is the environment variable consulted when no token flag is given.
const EnvToken = "SHRAN_GITHUB_TOKEN"

type tokenFile struct {
	Token string `yaml:"token"`
}

// LoadToken returns the GitHub token to use, in precedence order: the
// explicit flag value, the SHRAN_GITHUB_TOKEN environment variable, then the
// stored token file. An empty return means unauthenticated access.
func LoadToken(flagToken string) (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}
	if env := os.Getenv(EnvToken); env != "" {
		return env, nil
	}

	path, err := fsutil.TokenFile()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", path, err)
	}

	var tf tokenFile
	if err := yaml.UnmarshalWithOptions(data, &tf, yaml.Strict()); err != nil {
		return "", fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	return tf.Token, nil
}

// SaveToken persists the token for later runs. The file is user-readable
// only.
func SaveToken(token string) error {
	path, err := fsutil.TokenFile()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(&tokenFile{Token: token})
	if err != nil {
		return fmt.Errorf("failed to encode token file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file %s: %w", path, err)
	}
	return nil
}
