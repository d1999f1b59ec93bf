// Package inbound translates upload notifications from the queue into
// pipeline commands.
package inbound

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// VideoUploaded is the trigger message: one message maps to exactly one
// pipeline run.
type VideoUploaded struct {
	VideoID    uuid.UUID `json:"video_id"    validate:"required"`
	UploadPath string    `json:"upload_path" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeVideoUploaded parses and validates a raw message body.
func DecodeVideoUploaded(body []byte) (VideoUploaded, error) {
	var msg VideoUploaded
	if err := json.Unmarshal(body, &msg); err != nil {
		return VideoUploaded{}, fmt.Errorf("decode video uploaded message: %w", err)
	}
	if err := validate.Struct(msg); err != nil {
		return VideoUploaded{}, fmt.Errorf("validate video uploaded message: %w", err)
	}
	return msg, nil
}
