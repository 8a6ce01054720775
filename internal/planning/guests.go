package planning

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/database"
	"github.com/tariel-x/weddingcards/internal/models"
)

const duplicateEmail = "A guest with this email already exists for this invitation."

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

type GuestInput struct {
	InvitationID  string
	FirstName     string
	LastName      string
	GuestName     string
	Email         string
	Phone         string
	IsAttending   bool
	PaymentAmount *float64
}

func validateGuest(in *GuestInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	verr := &apperr.ValidationError{}
	if in.GuestName == "" && in.FirstName == "" {
		if in.Email == "" && in.Phone == "" {
			verr.Add("guest_name", "Provide a name, email or phone number.")
		} else {
			verr.Add("guest_name", "Provide either guest_name or first_name.")
		}
	}
	if in.Email != "" {
		if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
			verr.Add("email", "Enter a valid email address.")
		}
	}
	if in.Phone != "" && !e164.MatchString(in.Phone) {
		verr.Add("phone", "Enter a valid phone number in international format.")
	}
	if in.PaymentAmount != nil {
		if *in.PaymentAmount < 0 {
			verr.Add("payment_amount", "Ensure this value is greater than or equal to 0.")
		} else if *in.PaymentAmount >= 1e8 {
			verr.Add("payment_amount", "Ensure that there are no more than 10 digits in total.")
		}
	}
	return verr.OrNil()
}

// CreateGuest adds a guest to an owned invitation. Artifacts are produced
// separately by RenderGuestArtifacts.
func (s *Service) CreateGuest(ctx context.Context, plannerID string, in GuestInput) (*models.Guest, error) {
	if strings.TrimSpace(in.InvitationID) == "" {
		return nil, apperr.Invalid("invitation_id", "This field is required.")
	}
	inv, err := s.invitation(ctx, plannerID, in.InvitationID)
	if err != nil {
		return nil, err
	}
	if err := validateGuest(&in); err != nil {
		return nil, err
	}
	if err := s.checkEmailFree(ctx, inv.ID, in.Email, ""); err != nil {
		return nil, err
	}

	guest := models.Guest{
		InvitationID:  inv.ID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		GuestName:     in.GuestName,
		Email:         in.Email,
		Phone:         in.Phone,
		IsAttending:   in.IsAttending,
		PaymentAmount: in.PaymentAmount,
	}
	if err := s.db.WithContext(ctx).Create(&guest).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Invalid("email", duplicateEmail)
		}
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}

	s.log.Info().Str("guest_id", guest.ID).Str("invitation_id", inv.ID).Msg("guest created")
	return &guest, nil
}

func (s *Service) checkEmailFree(ctx context.Context, invitationID, email, exceptID string) error {
	if email == "" {
		return nil
	}
	q := s.db.WithContext(ctx).Model(&models.Guest{}).
		Where("invitation_id = ? AND email = ?", invitationID, email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check guest email: %w", err)
	}
	if n > 0 {
		return apperr.Invalid("email", duplicateEmail)
	}
	return nil
}

func (s *Service) ListGuests(ctx context.Context, plannerID string) ([]models.Guest, error) {
	guests := []models.Guest{}
	if err := s.ownedGuests(ctx, plannerID).Order("guests.created_at DESC").Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}

func (s *Service) GetGuest(ctx context.Context, plannerID, guestID string) (*models.Guest, error) {
	var guest models.Guest
	if err := s.ownedGuests(ctx, plannerID).First(&guest, "guests.id = ?", guestID).Error; err != nil {
		return nil, notFound(err)
	}
	return &guest, nil
}

// UpdateGuest changes the guest's contact details. The invitation, the
// check-in state and rendered artifacts cannot be changed here.
func (s *Service) UpdateGuest(ctx context.Context, plannerID, guestID string, in GuestInput) (*models.Guest, error) {
	guest, err := s.GetGuest(ctx, plannerID, guestID)
	if err != nil {
		return nil, err
	}
	if err := validateGuest(&in); err != nil {
		return nil, err
	}
	if err := s.checkEmailFree(ctx, guest.InvitationID, in.Email, guest.ID); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(guest).
		Select("first_name", "last_name", "guest_name", "email", "phone", "is_attending", "payment_amount").
		Updates(models.Guest{
			FirstName:     in.FirstName,
			LastName:      in.LastName,
			GuestName:     in.GuestName,
			Email:         in.Email,
			Phone:         in.Phone,
			IsAttending:   in.IsAttending,
			PaymentAmount: in.PaymentAmount,
		}).Error
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Invalid("email", duplicateEmail)
		}
		return nil, fmt.Errorf("failed to update guest: %w", err)
	}
	return s.GetGuest(ctx, plannerID, guestID)
}

func (s *Service) DeleteGuest(ctx context.Context, plannerID, guestID string) error {
	guest, err := s.GetGuest(ctx, plannerID, guestID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guest_id = ?", guest.ID).Delete(&models.Verification{}).Error; err != nil {
			return fmt.Errorf("failed to delete verification: %w", err)
		}
		if err := tx.Delete(guest).Error; err != nil {
			return fmt.Errorf("failed to delete guest: %w", err)
		}
		return nil
	})
}

// Verifications lists the scans of the planner's guests, newest first.
func (s *Service) Verifications(ctx context.Context, plannerID string) ([]models.Verification, error) {
	out := []models.Verification{}
	err := s.db.WithContext(ctx).
		Joins("JOIN guests ON guests.id = verifications.guest_id").
		Joins("JOIN invitations ON invitations.id = guests.invitation_id").
		Joins("JOIN events ON events.id = invitations.event_id").
		Where("events.planner_id = ?", plannerID).
		Order("verifications.scanned_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	return out, nil
}
