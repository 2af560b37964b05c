package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Gravitalia/socialbook/database"
	"github.com/Gravitalia/socialbook/helpers"
	"github.com/Gravitalia/socialbook/invalidation"
	"github.com/Gravitalia/socialbook/model"
	"github.com/Gravitalia/socialbook/storage"
)

const base64Marker = ";base64,"

// Message outcomes, also used as metric labels
const (
	Processed = "processed"
	Skipped   = "skipped"
	Duplicate = "duplicate"
	Failed    = "failed"
)

// Delivery is one received message waiting to be settled
type Delivery interface {
	Data() []byte
	Ack() error
	// Nak asks the broker to redeliver the message.
	Nak() error
}

// Processor resolves the image of a post from a queue message
type Processor struct {
	store       database.Store
	blobs       storage.BlobStore
	invalidator *invalidation.Coordinator
	logger      *slog.Logger
	now         func() time.Time
}

func NewProcessor(store database.Store, blobs storage.BlobStore, invalidator *invalidation.Coordinator, logger *slog.Logger) *Processor {
	return &Processor{
		store:       store,
		blobs:       blobs,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

// Handle processes a delivery, acknowledging it only on success.
// A failure leaves it unacknowledged for redelivery.
func (p *Processor) Handle(ctx context.Context, d Delivery) string {
	outcome, err := p.Process(ctx, d.Data())
	if err != nil {
		p.logger.Error("image processing failed", "error", err)
		helpers.ObserveMessage(Failed)
		if err := d.Nak(); err != nil {
			p.logger.Warn("cannot nak message", "error", err)
		}
		return Failed
	}

	if err := d.Ack(); err != nil {
		// the broker will redeliver, the patch is idempotent
		p.logger.Warn("cannot ack message", "error", err)
	}
	helpers.ObserveMessage(outcome)
	return outcome
}

// Process decodes the message, stores the image and patches the post.
// Reprocessing a message whose post already has an image only repeats
// the eviction, the previous attempt may have stopped before it.
func (p *Processor) Process(ctx context.Context, data []byte) (string, error) {
	var msg model.ImageMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
	}
	if msg.PostID == "" || msg.ImageBase64Data == "" {
		p.logger.Warn("message without post or image, dropping")
		return Skipped, nil
	}

	post, err := p.store.GetPost(ctx, msg.PostID)
	if errors.Is(err, model.ErrNotFound) {
		p.logger.Info("post not found, dropping", "post", msg.PostID)
		return Skipped, nil
	} else if err != nil {
		return "", fmt.Errorf("get post %s: %w", msg.PostID, err)
	}
	if post.HasImage() {
		p.resolved(ctx, post)
		return Duplicate, nil
	}

	ext, image, err := DecodeImage(msg.ImageBase64Data)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", msg.PostID, err)
	}

	path, err := p.blobs.Save(ctx, FileName(post.AuthorID, p.now(), ext), image)
	if err != nil {
		return "", fmt.Errorf("save image of post %s: %w", msg.PostID, err)
	}

	changed, err := p.store.SetPostImage(ctx, post.ID, p.blobs.URL(path))
	if errors.Is(err, model.ErrNotFound) {
		return Skipped, nil
	} else if err != nil {
		return "", fmt.Errorf("patch post %s: %w", msg.PostID, err)
	}
	if !changed {
		p.logger.Warn("post image set concurrently", "post", post.ID, "orphan", path)
		p.resolved(ctx, post)
		return Duplicate, nil
	}

	p.resolved(ctx, post)

	p.logger.Info("post image resolved", "post", post.ID, "path", path)
	return Processed, nil
}

// resolved evicts the views embedding the post. Without the author only
// the post keys go.
func (p *Processor) resolved(ctx context.Context, post *model.Post) {
	var username string
	if author, err := p.store.GetAccount(ctx, post.AuthorID); err == nil {
		username = author.Username
	} else {
		p.logger.Warn("cannot resolve post author, profile left cached",
			"post", post.ID,
			"author", post.AuthorID,
			"error", err)
	}
	p.invalidator.ImageResolved(ctx, post.ID, username)
}

// DecodeImage splits a data URL such as "data:image/png;base64,iVBOR..."
// and returns the extension and the decoded bytes.
func DecodeImage(dataURL string) (string, []byte, error) {
	format, encoded, ok := strings.Cut(dataURL, base64Marker)
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %q marker", model.ErrInvalidPayload, base64Marker)
	}

	ext := format[strings.LastIndex(format, "/")+1:]
	if ext == "" || strings.ContainsAny(ext, `/\.: `) {
		return "", nil, fmt.Errorf("%w: invalid format %q", model.ErrInvalidPayload, format)
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		image, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
	}

	return ext, image, nil
}

// FileName builds a collision resistant name from the author, the time
// and a random suffix: "{author}_{YYYYMMDDhhmmss}_{hex}.{ext}".
func FileName(authorID string, at time.Time, ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s_%s.%s", authorID, at.Format("20060102150405"), suffix, ext)
}
