package planning

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/database"
	"github.com/tariel-x/weddingcards/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

type RegisterInput struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a user together with their planner profile.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, *models.Planner, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	verr := &apperr.ValidationError{}
	if in.Email == "" && in.Phone == "" {
		verr.Add("email", "Either email or phone number must be provided.")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			verr.Add("email", "Enter a valid email address.")
		}
	}
	if len(in.Password) < 8 {
		verr.Add("password", "Password must be at least 8 characters.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
	}
	if in.Email != "" {
		user.Email = &in.Email
	}
	if in.Phone != "" {
		user.Phone = &in.Phone
	}

	var planner models.Planner
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				if in.Email != "" && taken(tx, "email", in.Email) {
					return apperr.Invalid("email", "A user with that email already exists.")
				}
				return apperr.Invalid("phone", "A user with that phone number already exists.")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		planner, err = newPlanner(tx, &user)
		if err != nil {
			return err
		}
		return tx.Create(&planner).Error
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("planner_id", planner.ID).Msg("planner registered")
	return &user, &planner, nil
}

func taken(tx *gorm.DB, column, value string) bool {
	var n int64
	tx.Model(&models.User{}).Where(column+" = ?", value).Count(&n)
	return n > 0
}

func newPlanner(tx *gorm.DB, user *models.User) (models.Planner, error) {
	name := user.FullName()
	if name == "" {
		name = user.Username()
	}
	company := name + "'s Events"
	phone := "N/A"
	if user.Phone != nil {
		phone = *user.Phone
	}

	slug, err := uniqueSlug(tx, Slugify(company))
	if err != nil {
		return models.Planner{}, err
	}
	return models.Planner{
		UserID:      user.ID,
		CompanyName: company,
		Slug:        slug,
		Phone:       phone,
		CreatedAt:   user.CreatedAt,
	}, nil
}

func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	if base == "" {
		base = "planner"
	}
	slug := base
	for i := 0; i < 5; i++ {
		var n int64
		if err := tx.Model(&models.Planner{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if n == 0 {
			return slug, nil
		}
		suffix, err := gonanoid.Generate(slugAlphabet, 6)
		if err != nil {
			return "", fmt.Errorf("failed to generate slug suffix: %w", err)
		}
		slug = base + "-" + suffix
	}
	return "", fmt.Errorf("failed to find a free slug for %q", base)
}

// Slugify lowercases s, turns separators into single hyphens and drops
// everything else that is not a letter or digit.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			hyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !hyphen && b.Len() > 0 {
				b.WriteRune('-')
				hyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Authenticate checks login (email or phone) and password.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR phone = ?", strings.ToLower(login), login).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *Service) User(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Service) PlannerForUser(ctx context.Context, userID string) (*models.Planner, error) {
	var planner models.Planner
	if err := s.db.WithContext(ctx).First(&planner, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &planner, nil
}
