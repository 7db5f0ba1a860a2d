package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestKnowledgeBaseRules(t *testing.T) {
	f := newFixture(t)
	svc := NewKBService(f.kb, f.audit, f.clock.Now)

	_, err := svc.Create(f.ctx, KBArticleInput{Title: "Reset MFA"}, f.requester)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = svc.Create(f.ctx, KBArticleInput{Title: "  "}, f.agent)
	requireCode(t, err, apperrors.CodeValidation)

	draft, err := svc.Create(f.ctx, KBArticleInput{Title: "Reset MFA", Body: "steps"}, f.agent)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultKBCategory, draft.Category)
	assert.Equal(t, f.agent.ID, draft.AuthorID)

	published, err := svc.Create(f.ctx, KBArticleInput{Title: "VPN setup", Category: "Network", Published: true, Tags: []string{"vpn"}}, f.agent2)
	require.NoError(t, err)

	list, err := svc.List(f.ctx, KBListFilter{}, f.requester)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, published.ID, list[0].ID)

	list, err = svc.List(f.ctx, KBListFilter{}, f.agent)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.Get(f.ctx, draft.ID, f.requester)
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = svc.Get(f.ctx, draft.ID, f.agent2)
	require.NoError(t, err)

	_, err = svc.Update(f.ctx, draft.ID, KBArticleInput{Title: "Reset MFA (v2)"}, f.agent2)
	requireCode(t, err, apperrors.CodeForbidden)

	updated, err := svc.Update(f.ctx, draft.ID, KBArticleInput{Title: "Reset MFA (v2)", Published: true}, f.agent)
	require.NoError(t, err)
	assert.True(t, updated.Published)

	_, err = svc.Update(f.ctx, published.ID, KBArticleInput{Title: "VPN setup (edited)", Category: "Network"}, f.supervisor)
	require.NoError(t, err)

	requireCode(t, svc.Delete(f.ctx, draft.ID, f.agent), apperrors.CodeForbidden)
	require.NoError(t, svc.Delete(f.ctx, draft.ID, f.supervisor))
	_, err = svc.Get(f.ctx, draft.ID, f.supervisor)
	requireCode(t, err, apperrors.CodeNotFound)

	assert.Equal(t, []string{
		`Created KB "Reset MFA"`,
		`Created KB "VPN setup"`,
		`Updated KB "Reset MFA (v2)"`,
		`Updated KB "VPN setup (edited)"`,
		`Deleted KB "Reset MFA (v2)"`,
	}, f.audit.actions())
}
