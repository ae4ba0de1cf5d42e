package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomboexe/support-desk/internal/domain"
	apperrors "github.com/pomboexe/support-desk/pkg/util"
)

type memKnowledgeRepo struct {
	mu   sync.Mutex
	docs map[string]*domain.KnowledgeDoc
}

func newMemKnowledgeRepo() *memKnowledgeRepo {
	return &memKnowledgeRepo{docs: make(map[string]*domain.KnowledgeDoc)}
}

func (r *memKnowledgeRepo) Create(_ context.Context, doc *domain.KnowledgeDoc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memKnowledgeRepo) List(_ context.Context) ([]domain.KnowledgeDoc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.KnowledgeDoc, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *memKnowledgeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.docs, id)
	return nil
}

func TestKnowledgeAdminGate(t *testing.T) {
	svc := NewKnowledgeService(newMemKnowledgeRepo())
	ctx := context.Background()

	_, err := svc.List(ctx, regularUser("carol"))
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = svc.Create(ctx, nil, "t", "c", "")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestKnowledgeLifecycle(t *testing.T) {
	svc := NewKnowledgeService(newMemKnowledgeRepo())
	ctx := context.Background()
	root := admin("root")

	doc, err := svc.Create(ctx, root, "Password resets", "Use the self-service portal first.", "accounts")
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)

	_, err = svc.Create(ctx, root, "  ", "content", "")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	docs, err := svc.List(ctx, root)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, svc.Delete(ctx, root, doc.ID))
	err = svc.Delete(ctx, root, doc.ID)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
