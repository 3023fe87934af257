package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/realtime"
)

// userService handles user-related business logic.
type userService struct {
	db       *gorm.DB
	sessions *realtime.SessionBroadcaster
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, sessions *realtime.SessionBroadcaster) UserServicer {
	return &userService{db: db, sessions: sessions}
}

// Register creates the auth identity and the profile in one transaction, so
// a failed profile write never leaves a login without a profile behind it.
func (s *userService) Register(email, password, fullName, job string) (*models.User, error) {
	if len(password) < 8 {
		return nil, apperrors.ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	user := &models.User{
		Email:    strings.ToLower(email),
		Password: string(hashedPassword),
		FullName: fullName,
		Job:      job,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateEmail
		}
		if err := tx.Create(user).Error; err != nil {
			// A concurrent register can slip between the count and the
			// create and land on the unique email index.
			if isDuplicateKey(err) {
				return apperrors.ErrDuplicateEmail
			}
			return apperrors.Wrap(apperrors.ErrWriteFailed, err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}

	s.sessions.SignIn(user)
	return user, nil
}

// isDuplicateKey recognizes unique index violations from the drivers in use.
// Not every driver configuration translates them to gorm.ErrDuplicatedKey,
// so the error text is matched as a fallback.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// Authenticate validates credentials and returns the user. No ledger data is
// touched; failures are indistinguishable between unknown email and wrong
// password.
func (s *userService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	s.sessions.SignIn(&user)
	return &user, nil
}

// GetUserByID retrieves a user's profile.
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternal, err)
	}
	return &user, nil
}

// ChangePassword stores the new password hash and bumps the token version,
// which retires every outstanding token and signs the user out everywhere.
func (s *userService) ChangePassword(userID, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.ErrWeakPassword
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, err)
	}

	updates := map[string]interface{}{
		"password":      string(hashedPassword),
		"token_version": gorm.Expr("token_version + 1"),
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrWriteFailed, err)
	}

	s.sessions.SignOut(userID)
	return nil
}

// SignOut broadcasts the unauthenticated state for the user.
func (s *userService) SignOut(userID string) {
	s.sessions.SignOut(userID)
}

// TokenVersion reports the user's current token version for auth checks.
func (s *userService) TokenVersion(userID string) (int, error) {
	var user models.User
	if err := s.db.Select("token_version").Where("id = ?", userID).First(&user).Error; err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}
