// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and contact identifiers from a directory
// of plain-text files, one secret per file: the filename is the key name
// and the trimmed file contents are the value.
//
// Supported key files: contact-email, semantic-scholar-api-key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxSecretBytes caps how much of a secret file is read. Anything larger
// is not a credential.
const maxSecretBytes = 4096

// Load reads every regular file in dir into a name-to-value map. A missing
// directory is not an error and yields an empty map. Dotfiles,
// subdirectories, and empty files are skipped; an unreadable file is
// reported on stderr and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	loaded := make(map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		v, err := readSecret(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if v != "" {
			loaded[name] = v
		}
	}
	return loaded, nil
}

func readSecret(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, maxSecretBytes)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(string(buf[:n])), nil
}

// Resolve returns the value for name, preferring an environment variable
// of the form REFCHECK_<NAME> (dashes mapped to underscores) over the
// loaded secrets map. Empty string when neither is set.
func Resolve(loaded map[string]string, name string) string {
	envKey := "REFCHECK_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return loaded[name]
}
