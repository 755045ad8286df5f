package engine

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"lukechampine.com/blake3"
)

const (
	customProfilePrefix = "custom_"
	profileExt          = ".brf"
)

// StoreCustomProfile saves a profile under a content-derived id, the way the
// brouter server names uploaded profiles, and returns that id. Storing the
// same content twice yields the same id.
func (e *Engine) StoreCustomProfile(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", errors.New("empty profile")
	}
	sum := blake3.Sum256(data)
	id := customProfilePrefix + hex.EncodeToString(sum[:])[:16]

	dir := e.customProfilesPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := atomicWrite(filepath.Join(dir, id+profileExt), bytes.NewReader(data), 0o644); err != nil {
		return "", err
	}
	e.log.Debug("stored custom profile", zap.String("profile", id))
	return id, nil
}

func (e *Engine) CustomProfilesDir() string {
	return e.customProfilesPath()
}
