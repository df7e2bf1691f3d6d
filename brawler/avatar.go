package brawler

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kasuganosora/missionboard/board"
)

// MaxAvatarBytes bounds the decoded avatar image.
const MaxAvatarBytes = 2 << 20

var avatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// AvatarDataURL validates a base64 PNG or JPEG, with or without a
// "data:...;base64," prefix, and returns it as a canonical data URL.
// The declared prefix is ignored; the type is sniffed from the bytes.
func AvatarDataURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", board.Invalid("Avatar image is empty.")
	}
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = raw[i+1:]
	}
	if base64.StdEncoding.DecodedLen(len(raw)) > MaxAvatarBytes+3 {
		return "", board.Invalid("Avatar image must be at most %d bytes.", MaxAvatarBytes)
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", board.Invalid("Invalid base64 image data.")
	}
	mt := mimetype.Detect(data).String()
	if !avatarTypes[mt] {
		return "", board.Invalid("Avatar must be a PNG or JPEG image.")
	}
	return "data:" + mt + ";base64," + raw, nil
}

// UploadAvatar stores a validated avatar for brawlerID and returns its URL.
func (s *Service) UploadAvatar(ctx context.Context, brawlerID int64, raw string) (string, error) {
	url, err := AvatarDataURL(raw)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdateAvatar(ctx, brawlerID, url); err != nil {
		return "", err
	}
	return url, nil
}
