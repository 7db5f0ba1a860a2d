package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestAttachmentRoundTrip(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Screenshot of error")

	att, err := f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "error.png", Data: []byte("png")}, f.requester)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", att.ContentType)
	assert.EqualValues(t, 3, att.Size)

	content, err := f.ticketSvc.GetAttachment(f.ctx, ticket.ID, att.ID, f.requester)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), content.Data)
	assert.Equal(t, "error.png", content.Attachment.Name)

	_, err = f.ticketSvc.GetAttachment(f.ctx, ticket.ID, att.ID, f.other)
	requireCode(t, err, apperrors.CodeForbidden)

	requireCode(t, f.ticketSvc.DeleteAttachment(f.ctx, ticket.ID, att.ID, f.requester), apperrors.CodeForbidden)
	require.NoError(t, f.ticketSvc.DeleteAttachment(f.ctx, ticket.ID, att.ID, f.agent))

	stored, err := f.tickets.GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Attachments)
	assert.Equal(t, "Deleted attachment: error.png", stored.Timeline[len(stored.Timeline)-1].Action)
	assert.Equal(t, 0, f.blobs.Len())

	_, err = f.ticketSvc.GetAttachment(f.ctx, ticket.ID, att.ID, f.agent)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestAttachmentValidation(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Logs")

	_, err := f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: " ", Data: []byte("x")}, f.requester)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "empty.log"}, f.requester)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "big.log", Data: make([]byte, 2048)}, f.requester)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "x.log", Data: []byte("x")}, f.other)
	requireCode(t, err, apperrors.CodeForbidden)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestAttachmentBlobFailureLeavesNoMetadata(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Invoice")
	f.blobs.failPut = true

	_, err := f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "invoice.pdf", Data: []byte("%PDF")}, f.requester)
	requireCode(t, err, apperrors.CodeInternal)

	stored, err := f.tickets.GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Attachments)
	assert.Len(t, stored.Timeline, 1)
}

type failingTicketWrites struct {
	*memory.TicketRepository
}

func (failingTicketWrites) Update(context.Context, *domain.Ticket) error {
	return errors.New("database unavailable")
}

func TestAttachmentMetadataFailureRemovesBlob(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Contract")
	svc := NewTicketService(TicketDependencies{
		TicketRepo: failingTicketWrites{TicketRepository: f.tickets},
		UserRepo:   f.users,
		Blobs:      f.blobs,
		Clock:      f.clock.Now,
	})

	_, err := svc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "c.pdf", Data: []byte("x")}, f.requester)
	requireCode(t, err, apperrors.CodeInternal)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestAttachmentDeleteRestoresMetadataWhenBlobDeleteFails(t *testing.T) {
	f := newFixture(t)
	ticket := f.createTicket(t, f.requester, "Photos")
	first, err := f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "1.jpg", Data: []byte("1")}, f.requester)
	require.NoError(t, err)
	_, err = f.ticketSvc.AddAttachment(f.ctx, ticket.ID, AttachmentInput{Name: "2.jpg", Data: []byte("2")}, f.requester)
	require.NoError(t, err)
	before, err := f.tickets.GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)

	f.blobs.failDelete = true
	requireCode(t, f.ticketSvc.DeleteAttachment(f.ctx, ticket.ID, first.ID, f.agent), apperrors.CodeInternal)

	after, err := f.tickets.GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Attachments, after.Attachments)
	assert.Equal(t, before.Timeline, after.Timeline)
	assert.Equal(t, 2, f.blobs.Len())
}
