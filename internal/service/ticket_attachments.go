package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const defaultContentType = "application/octet-stream"

// AttachmentInput is an uploaded file.
type AttachmentInput struct {
	Name        string
	ContentType string
	Data        []byte
}

// AttachmentContent is attachment metadata plus its bytes.
type AttachmentContent struct {
	Attachment domain.Attachment
	Data       []byte
}

// AddAttachment stores the bytes first and only then records the metadata.
// If the metadata write fails the blob is removed again.
func (s *TicketService) AddAttachment(ctx context.Context, ticketID string, input AttachmentInput, actor domain.Actor) (*domain.Attachment, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("attachment name is required", nil)
	}
	if len(input.Data) == 0 {
		return nil, apperrors.NewValidationError("attachment is empty", nil)
	}
	if s.cfg.AttachmentMaxBytes > 0 && int64(len(input.Data)) > s.cfg.AttachmentMaxBytes {
		return nil, apperrors.NewValidationError("attachment exceeds size limit",
			map[string]any{"max_bytes": s.cfg.AttachmentMaxBytes, "size": len(input.Data)})
	}
	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("ticket is outside your view scope")
	}

	attachment := domain.Attachment{
		ID:             uuid.NewString(),
		TicketID:       ticket.ID,
		Name:           name,
		ContentType:    contentType,
		Size:           int64(len(input.Data)),
		UploadedByID:   actor.ID,
		UploadedByName: actor.Name,
		CreatedAt:      s.now(),
	}
	if err := s.blobs.Put(ctx, storage.Blob{
		TicketID:     ticket.ID,
		AttachmentID: attachment.ID,
		ContentType:  contentType,
		Data:         input.Data,
	}); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var updated *domain.Ticket
	err = s.mutate(ctx, ticket.ID, true, func(t *domain.Ticket) (bool, error) {
		t.Attachments = append(t.Attachments, attachment)
		t.UpdatedAt = attachment.CreatedAt
		t.Timeline = append(t.Timeline, newTimelineEntry(actor, attachment.CreatedAt, "Added attachment: "+attachment.Name))
		updated = t
		return true, nil
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, ticket.ID, attachment.ID); delErr != nil {
			s.logger.Error("orphaned attachment blob",
				zap.String("ticket_id", ticket.ID), zap.String("attachment_id", attachment.ID), zap.Error(delErr))
		}
		return nil, err
	}

	s.audit.record(actor, attachment.CreatedAt, "Attachment added to %s", updated.HumanID)
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketAttachmentAdded,
		TicketID: updated.ID,
		HumanID:  updated.HumanID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketAttachmentPayload{
			AttachmentID: attachment.ID,
			Name:         attachment.Name,
			Size:         attachment.Size,
		},
	}, attachment.CreatedAt)
	return &attachment, nil
}

// GetAttachment returns metadata and bytes of an attachment on a visible ticket.
func (s *TicketService) GetAttachment(ctx context.Context, ticketID, attachmentID string, actor domain.Actor) (*AttachmentContent, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("ticket is outside your view scope")
	}
	idx := ticket.FindAttachment(attachmentID)
	if idx < 0 {
		return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
	}
	blob, err := s.blobs.Get(ctx, ticket.ID, attachmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return &AttachmentContent{Attachment: ticket.Attachments[idx], Data: blob.Data}, nil
}

// DeleteAttachment removes the metadata, then the blob. When the blob delete
// fails the metadata is put back. Agent+ only.
func (s *TicketService) DeleteAttachment(ctx context.Context, ticketID, attachmentID string, actor domain.Actor) error {
	if err := requireRole(actor, domain.RoleAgent); err != nil {
		return err
	}

	var (
		removed  domain.Attachment
		position int
		entryID  string
		updated  *domain.Ticket
	)
	err := s.mutate(ctx, ticketID, true, func(t *domain.Ticket) (bool, error) {
		idx := t.FindAttachment(attachmentID)
		if idx < 0 {
			return false, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		removed, position = t.Attachments[idx], idx
		t.Attachments = append(t.Attachments[:idx:idx], t.Attachments[idx+1:]...)
		t.UpdatedAt = s.now()
		entry := newTimelineEntry(actor, t.UpdatedAt, "Deleted attachment: "+removed.Name)
		entryID = entry.ID
		t.Timeline = append(t.Timeline, entry)
		updated = t
		return true, nil
	})
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, updated.ID, attachmentID); err != nil {
		s.logger.Error("attachment blob delete failed, restoring metadata",
			zap.String("ticket_id", updated.ID), zap.String("attachment_id", attachmentID), zap.Error(err))
		restoreErr := s.mutate(ctx, updated.ID, true, func(t *domain.Ticket) (bool, error) {
			if t.FindAttachment(attachmentID) >= 0 {
				return false, nil
			}
			at := position
			if at > len(t.Attachments) {
				at = len(t.Attachments)
			}
			t.Attachments = append(t.Attachments[:at:at], append([]domain.Attachment{removed}, t.Attachments[at:]...)...)
			for i := range t.Timeline {
				if t.Timeline[i].ID == entryID {
					t.Timeline = append(t.Timeline[:i:i], t.Timeline[i+1:]...)
					break
				}
			}
			return true, nil
		})
		if restoreErr != nil {
			s.logger.Error("attachment metadata restore failed",
				zap.String("ticket_id", updated.ID), zap.String("attachment_id", attachmentID), zap.Error(restoreErr))
		}
		return apperrors.NewInternalError(err)
	}

	s.audit.record(actor, updated.UpdatedAt, "Attachment deleted in %s", updated.HumanID)
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketAttachmentRemoved,
		TicketID: updated.ID,
		HumanID:  updated.HumanID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketAttachmentPayload{
			AttachmentID: removed.ID,
			Name:         removed.Name,
			Size:         removed.Size,
		},
	}, updated.UpdatedAt)
	return nil
}
