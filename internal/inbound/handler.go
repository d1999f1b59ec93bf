package inbound

import (
	"context"

	"github.com/Video2Frames/video-processor/internal/usecase"
	"go.uber.org/zap"
)

// DLQSink parks messages that can never be processed.
type DLQSink interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}

// Handler glues the queue consumer to the pipeline. Undecodable messages go
// to the DLQ and are acked (redelivery cannot fix them); a failed DLQ publish
// is returned so the consumer keeps the message instead of dropping it.
// Pipeline errors are returned so the consumer nacks for redelivery.
type Handler struct {
	uc     *usecase.ProcessVideo
	dlq    DLQSink
	logger *zap.Logger
}

func NewHandler(uc *usecase.ProcessVideo, dlq DLQSink, logger *zap.Logger) *Handler {
	return &Handler{uc: uc, dlq: dlq, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, body []byte) error {
	msg, err := DecodeVideoUploaded(body)
	if err != nil {
		h.logger.Error("invalid video uploaded message", zap.Error(err), zap.ByteString("body", body))
		if h.dlq != nil {
			if dlqErr := h.dlq.PublishToDLQ(ctx, body, "decode_error: "+err.Error()); dlqErr != nil {
				h.logger.Error("dlq publish failed", zap.Error(dlqErr))
				return dlqErr
			}
		}
		return nil
	}

	_, err = h.uc.Execute(ctx, usecase.Command{
		VideoID:    msg.VideoID,
		UploadPath: msg.UploadPath,
	})
	return err
}
