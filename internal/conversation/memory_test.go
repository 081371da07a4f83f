package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/brain-service/internal/records"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s, err := m.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	s.AppendUser("list resumes")
	s.AppendAssistant("No resumes uploaded yet.")
	s.LastResume = &records.ResumeRef{DocumentID: 7, Filename: "cv.pdf", FilePath: "data/uploads/cv.pdf"}
	require.NoError(t, m.Save(ctx, s))

	got, err := m.Load(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, schema.User, got.Messages[0].Role)
	assert.Equal(t, "list resumes", got.Messages[0].Content)
	assert.Equal(t, schema.Assistant, got.Messages[1].Role)
	assert.Equal(t, s.LastResume, got.LastResume)
}

func TestMemoryStore_LoadIsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	loaded, err := m.Load(ctx, s.ID)
	require.NoError(t, err)
	loaded.AppendUser("unsaved")

	again, err := m.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Messages)
}

func TestMemoryStore_End(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, m.End(ctx, s.ID))
	_, err = m.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.End(ctx, s.ID), ErrSessionNotFound)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	old, err := m.Create(ctx)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	fresh, err := m.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep(15*time.Minute))
	assert.Equal(t, 1, m.Len())

	_, err = m.Load(ctx, old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Load(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestSweeper_StartStop(t *testing.T) {
	sw := NewSweeper(NewMemoryStore(), time.Minute, time.Hour)
	assert.Equal(t, "@every 1m0s", sw.spec)
	require.NoError(t, sw.Start())
	sw.Stop()
}
