package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	pkgkafka "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/kafka"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type recorder struct {
	events []published
	err    error
}

func (r *recorder) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, published{topic: topic, event: e})
	return nil
}

func sampleUser() *domain.User {
	return &domain.User{ID: uuid.New(), Username: "alice", Role: domain.RoleUser, Status: domain.StatusActive}
}

func TestProducer_UserEvents(t *testing.T) {
	rec := &recorder{}
	p := NewProducer(rec)
	fixed := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }
	u := sampleUser()
	ctx := context.Background()

	require.NoError(t, p.PublishUserRegistered(ctx, u))
	require.NoError(t, p.PublishAccountFrozen(ctx, u))
	require.NoError(t, p.PublishAccountReactivated(ctx, u))
	require.NoError(t, p.PublishAccountDeleted(ctx, u))
	require.NoError(t, p.PublishPasswordReset(ctx, u))

	topics := make([]string, 0, len(rec.events))
	for _, e := range rec.events {
		topics = append(topics, e.topic)
		assert.Equal(t, u.ID.String(), e.event.Key)
		assert.Equal(t, SourceVault, e.event.Source)
		assert.Equal(t, fixed, e.event.OccurredAt)
	}
	assert.Equal(t, []string{
		TopicUserRegistered, TopicAccountFrozen, TopicAccountReactivated, TopicAccountDeleted, TopicPasswordReset,
	}, topics)

	var data UserData
	require.NoError(t, rec.events[0].event.DecodeData(&data))
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "ACTIVE", data.Status)
}

func TestProducer_SecretRevealedCarriesNoSecret(t *testing.T) {
	rec := &recorder{}
	p := NewProducer(rec)
	userID, credID := uuid.New(), uuid.New()

	require.NoError(t, p.PublishSecretRevealed(context.Background(), userID, credID))
	require.Len(t, rec.events, 1)

	var data map[string]any
	require.NoError(t, rec.events[0].event.DecodeData(&data))
	assert.Equal(t, map[string]any{"user_id": userID.String(), "credential_id": credID.String()}, data)
}

func TestProducer_PublishError(t *testing.T) {
	p := NewProducer(&recorder{err: errors.New("broker down")})

	err := p.PublishAccountFrozen(context.Background(), sampleUser())
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicAccountFrozen)
}

func TestDiscard(t *testing.T) {
	p := NewProducer(Discard{})
	assert.NoError(t, p.PublishUserRegistered(context.Background(), sampleUser()))
}
