// Package event publishes account and vault domain events.
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	pkgkafka "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/kafka"
)

// Kafka topic constants for vault events.
const (
	TopicUserRegistered     = "trinity.user.registered"
	TopicAccountFrozen      = "trinity.user.frozen"
	TopicAccountReactivated = "trinity.user.reactivated"
	TopicAccountDeleted     = "trinity.user.deleted"
	TopicPasswordReset      = "trinity.user.password_reset"
	TopicSecretRevealed     = "trinity.credential.revealed"
)

// SourceVault identifies events emitted by this service.
const SourceVault = "trinity-vault"

// UserData is the payload of the user lifecycle events.
type UserData struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Role     string     `json:"role"`
	Status   string     `json:"status"`
	FrozenAt *time.Time `json:"frozen_at,omitempty"`
}

// SecretRevealedData is the payload of credential.revealed. It never carries
// the secret.
type SecretRevealedData struct {
	UserID       string `json:"user_id"`
	CredentialID string `json:"credential_id"`
}

// Publisher is what Producer writes through. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes vault domain events.
type Producer struct {
	pub Publisher
	now func() time.Time
}

// NewProducer creates a new event producer.
func NewProducer(pub Publisher) *Producer {
	return &Producer{pub: pub, now: time.Now}
}

func (p *Producer) publish(ctx context.Context, topic, key string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, key, SourceVault, p.now(), data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.pub.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

func userData(u *domain.User) UserData {
	return UserData{
		ID:       u.ID.String(),
		Username: u.Username,
		Role:     u.Role,
		Status:   string(u.Status),
		FrozenAt: u.FrozenAt,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, u.ID.String(), userData(u))
}

// PublishAccountFrozen publishes a user.frozen event.
func (p *Producer) PublishAccountFrozen(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicAccountFrozen, u.ID.String(), userData(u))
}

// PublishAccountReactivated publishes a user.reactivated event.
func (p *Producer) PublishAccountReactivated(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicAccountReactivated, u.ID.String(), userData(u))
}

// PublishAccountDeleted publishes a user.deleted event.
func (p *Producer) PublishAccountDeleted(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicAccountDeleted, u.ID.String(), userData(u))
}

// PublishPasswordReset publishes a user.password_reset event.
func (p *Producer) PublishPasswordReset(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicPasswordReset, u.ID.String(), userData(u))
}

// PublishSecretRevealed publishes a credential.revealed event.
func (p *Producer) PublishSecretRevealed(ctx context.Context, userID, credentialID uuid.UUID) error {
	return p.publish(ctx, TopicSecretRevealed, userID.String(), SecretRevealedData{
		UserID:       userID.String(),
		CredentialID: credentialID.String(),
	})
}

// Discard is a Publisher that drops every event. It stands in when no
// brokers are configured.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
