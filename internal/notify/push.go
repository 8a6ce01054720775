// Package notify delivers check-in notifications to planners' browsers
// over Web Push.
package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/checkin"
	"github.com/tariel-x/weddingcards/internal/models"
)

// VAPIDKeys identify this server to push services.
type VAPIDKeys struct {
	Subject    string
	PublicKey  string
	PrivateKey string
}

type sendFunc func(ctx context.Context, message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Pusher stores browser subscriptions and sends notifications to them.
type Pusher struct {
	db   *gorm.DB
	keys VAPIDKeys
	log  zerolog.Logger
	send sendFunc
	wg   sync.WaitGroup
}

func New(db *gorm.DB, keys VAPIDKeys, log zerolog.Logger) *Pusher {
	return &Pusher{
		db:   db,
		keys: keys,
		log:  log,
		send: webpush.SendNotificationWithContext,
	}
}

func (p *Pusher) PublicKey() string {
	return p.keys.PublicKey
}

// Subscribe stores a browser endpoint for userID. Earlier subscriptions of
// the user are replaced.
func (p *Pusher) Subscribe(ctx context.Context, userID, endpoint, p256dh, auth string) (*models.PushSubscription, error) {
	sub := models.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256DH:   strings.TrimSpace(p256dh),
		Auth:     strings.TrimSpace(auth),
	}
	if err := validateKeys(sub.P256DH, sub.Auth); err != nil {
		return nil, &apperr.ValidationError{Fields: map[string]string{"keys": err.Error()}}
	}

	var replaced int64
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", userID).Delete(&models.PushSubscription{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete old subscriptions: %w", res.Error)
		}
		replaced = res.RowsAffected
		return tx.Create(&sub).Error
	})
	if err != nil {
		return nil, err
	}

	p.log.Info().Str("user_id", userID).Int64("replaced", replaced).Msg("push subscription stored")
	return &sub, nil
}

func (p *Pusher) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	res := p.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Notification is the JSON payload the service worker receives.
type Notification struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// SendToUser pushes n to every subscription of userID. Subscriptions the
// push service reports as gone are deleted.
func (p *Pusher) SendToUser(ctx context.Context, userID string, n Notification) (sent int, err error) {
	var subs []models.PushSubscription
	if err := p.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return 0, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return 0, fmt.Errorf("failed to encode notification: %w", err)
	}

	for i := range subs {
		sub := &subs[i]
		if err := validateKeys(sub.P256DH, sub.Auth); err != nil {
			p.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("dropping subscription with invalid keys")
			p.drop(ctx, sub)
			continue
		}

		resp, err := p.send(ctx, payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256DH, Auth: sub.Auth},
		}, &webpush.Options{
			Subscriber:      p.keys.Subject,
			VAPIDPublicKey:  p.keys.PublicKey,
			VAPIDPrivateKey: p.keys.PrivateKey,
			TTL:             30,
			Urgency:         webpush.UrgencyHigh,
		})
		if err != nil {
			p.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("push delivery failed")
			continue
		}
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
			p.log.Info().Int("status", resp.StatusCode).Str("subscription_id", sub.ID).Msg("push subscription expired")
			p.drop(ctx, sub)
		case resp.StatusCode >= 400:
			p.log.Warn().Int("status", resp.StatusCode).Str("subscription_id", sub.ID).Msg("push service rejected notification")
		default:
			sent++
		}
	}

	p.log.Debug().Str("user_id", userID).Int("sent", sent).Int("subscriptions", len(subs)).Msg("push notification sent")
	return sent, nil
}

func (p *Pusher) drop(ctx context.Context, sub *models.PushSubscription) {
	if err := p.db.WithContext(ctx).Delete(sub).Error; err != nil {
		p.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to delete subscription")
	}
}

// GuestCheckedIn notifies the event's planner in the background.
func (p *Pusher) GuestCheckedIn(ctx context.Context, ev checkin.Event) {
	if ev.PlannerUserID == "" {
		return
	}
	name := ev.DisplayName
	if name == "" {
		name = "A guest"
	}
	n := Notification{
		Title: "Guest checked in",
		Body:  name + " has arrived",
		Data: map[string]any{
			"event_id": ev.EventID,
			"guest_id": ev.GuestID,
		},
	}

	ctx = context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if _, err := p.SendToUser(ctx, ev.PlannerUserID, n); err != nil {
			p.log.Error().Err(err).Str("user_id", ev.PlannerUserID).Msg("check-in push failed")
		}
	}()
}

// Wait blocks until background deliveries finish.
func (p *Pusher) Wait() {
	p.wg.Wait()
}

var errBadKey = errors.New("invalid subscription key")

// validateKeys checks the client keys: an uncompressed P-256 point and a
// 16 byte auth secret, in any base64 alphabet.
func validateKeys(p256dh, auth string) error {
	point, err := decodeKey(p256dh)
	if err != nil || len(point) != 65 || point[0] != 0x04 {
		return fmt.Errorf("p256dh: %w", errBadKey)
	}
	secret, err := decodeKey(auth)
	if err != nil || len(secret) != 16 {
		return fmt.Errorf("auth: %w", errBadKey)
	}
	return nil
}

func decodeKey(key string) ([]byte, error) {
	trimmed := strings.TrimRight(key, "=")
	if b, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(trimmed)
}
