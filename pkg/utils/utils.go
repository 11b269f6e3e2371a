package utils

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ScratchFilePath(dir, assetID, displayName string) (string, error)
}

type utils struct{}

func New() IUtils {
	return &utils{}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// ScratchFilePath builds a private scratch path for a downloaded asset.
// The name is derived from the asset id plus a ULID, not the display name,
// so two in-flight jobs can never collide on the same file.
func (u *utils) ScratchFilePath(dir, assetID, displayName string) (string, error) {
	id, err := u.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(displayName)
	safeID := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, assetID)

	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", safeID, id, ext)), nil
}
