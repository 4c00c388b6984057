package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/weiawesome/wes-io-conduit/internal/audit"
	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
	"github.com/weiawesome/wes-io-conduit/pkg/log"
	"github.com/weiawesome/wes-io-conduit/pkg/storage"
)

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	repo          repository.UserRepository
	users         *UserLookup
	passwords     PasswordHasher
	tokens        TokenIssuer
	images        storage.Storage
	imageOpts     ImageOptions
}

// NewUserService creates a new user service. images may be nil, in which
// case uploads are rejected.
func NewUserService(
	repo repository.UserRepository,
	users *UserLookup,
	passwords PasswordHasher,
	tokens TokenIssuer,
	images storage.Storage,
	imageOpts ImageOptions,
) UserService {
	return &userServiceImpl{
		repo:          repo,
		users:         users,
		passwords:     passwords,
		tokens:        tokens,
		images:        images,
		imageOpts:     imageOpts.withDefaults(),
	}
}

// Register creates an account and returns it with a fresh token.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthUser, error) {
	l := log.Ctx(ctx)

	username := normalizeIdentity(req.Username)
	email := normalizeIdentity(req.Email)

	verr := &domain.ValidationError{}
	validateUsername(verr, username)
	validateEmail(verr, email)
	if req.Password == "" {
		verr.Add("password", domain.MsgBlank)
	}
	if err := s.checkTaken(ctx, verr, "", username, email); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user := &domain.User{Username: username, Email: email}
	if err := s.passwords.SetPassword(user, req.Password); err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if verr := takenError(err); verr != nil {
			return nil, verr
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	return s.authView(ctx, user)
}

// Login checks the credentials and returns the user with a fresh token.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthUser, error) {
	l := log.Ctx(ctx)

	email := normalizeIdentity(req.Email)

	verr := &domain.ValidationError{}
	requireField(verr, "email", email)
	if req.Password == "" {
		verr.Add("password", domain.MsgBlank)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", email, "login failed: user not found")
			return nil, domain.ErrCredentialsInvalid
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	if !s.passwords.VerifyPassword(user, req.Password) {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, email, "login failed: wrong password")
		return nil, domain.ErrCredentialsInvalid
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return s.authView(ctx, user)
}

// GetCurrentUser returns the token subject with a freshly issued token.
func (s *userServiceImpl) GetCurrentUser(ctx context.Context, userID string) (*domain.AuthUser, error) {
	user, err := s.loadSelf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.authView(ctx, user)
}

// UpdateUser applies the provided fields. Username and email stay unique.
func (s *userServiceImpl) UpdateUser(ctx context.Context, userID string, req *domain.UpdateUserRequest) (*domain.AuthUser, error) {
	l := log.Ctx(ctx)

	user, err := s.loadSelf(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldUsername := user.Username

	verr := &domain.ValidationError{}
	if req.Username != nil {
		user.Username = normalizeIdentity(*req.Username)
		validateUsername(verr, user.Username)
	}
	if req.Email != nil {
		user.Email = normalizeIdentity(*req.Email)
		validateEmail(verr, user.Email)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Image != nil {
		user.Image = strings.TrimSpace(*req.Image)
	}
	if req.Password != nil && *req.Password == "" {
		verr.Add("password", domain.MsgBlank)
	}
	if err := s.checkTaken(ctx, verr, user.ID, user.Username, user.Email); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if req.Password != nil {
		if err := s.passwords.SetPassword(user, *req.Password); err != nil {
			l.Error().Err(err).Msg("failed to hash password")
			return nil, err
		}
	}

	if err := s.save(ctx, user, oldUsername); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionUpdateProfile, user.ID, "user updated")

	return s.authView(ctx, user)
}

// UploadImage decodes the upload, stores a bounded JPEG copy under
// images/<userID>/ and sets the user's image to its URL.
func (s *userServiceImpl) UploadImage(ctx context.Context, userID string, upload *domain.ImageUpload) (*domain.AuthUser, error) {
	l := log.Ctx(ctx)

	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}

	user, err := s.loadSelf(ctx, userID)
	if err != nil {
		return nil, err
	}

	img, err := processImage(upload, s.imageOpts)
	if err != nil {
		return nil, err
	}

	key := path.Join("images", user.ID, uuid.New().String()+processedImageExt)
	if err := s.images.Write(ctx, key, bytes.NewReader(img.data), int64(len(img.data)), processedImageType); err != nil {
		l.Error().Err(err).Str("key", key).Msg("failed to store profile image")
		return nil, fmt.Errorf("store image: %w", err)
	}
	l.Info().Str("key", key).Int("width", img.width).Int("height", img.height).Msg("stored profile image")

	url, err := s.images.GetURL(ctx, key, 0)
	if err != nil {
		l.Error().Err(err).Str("key", key).Msg("failed to resolve profile image url")
		return nil, fmt.Errorf("resolve image url: %w", err)
	}

	user.Image = url
	if err := s.save(ctx, user, user.Username); err != nil {
		if delErr := s.images.Delete(ctx, key); delErr != nil {
			l.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned profile image")
		}
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionUploadImage, user.ID, key, "profile image uploaded")

	return s.authView(ctx, user)
}

// loadSelf reads the full record, password material included, bypassing
// the cache.
func (s *userServiceImpl) loadSelf(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrCredentialsMissing
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get user")
		return nil, err
	}
	return user, nil
}

func (s *userServiceImpl) save(ctx context.Context, user *domain.User, oldUsername string) error {
	if err := s.repo.Update(ctx, user); err != nil {
		if verr := takenError(err); verr != nil {
			return verr
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.ErrTokenInvalid
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to update user")
		return err
	}
	s.users.Invalidate(ctx, user, oldUsername)
	return nil
}

// checkTaken adds "is already taken" for username or email held by someone
// other than selfID. Fields that already failed validation are skipped.
func (s *userServiceImpl) checkTaken(ctx context.Context, verr *domain.ValidationError, selfID, username, email string) error {
	if _, failed := verr.Fields["username"]; !failed {
		other, err := s.repo.GetByUsername(ctx, username)
		switch {
		case err == nil && other.ID != selfID:
			verr.Add("username", domain.MsgTaken)
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return err
		}
	}
	if _, failed := verr.Fields["email"]; !failed {
		other, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil && other.ID != selfID:
			verr.Add("email", domain.MsgTaken)
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return err
		}
	}
	return nil
}

// takenError maps a unique violation that slipped past checkTaken.
func takenError(err error) error {
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return domain.NewValidationError("username", domain.MsgTaken)
	case errors.Is(err, repository.ErrEmailExists):
		return domain.NewValidationError("email", domain.MsgTaken)
	default:
		return nil
	}
}

func (s *userServiceImpl) authView(ctx context.Context, user *domain.User) (*domain.AuthUser, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to issue token")
		return nil, err
	}
	return toAuthUser(user, token), nil
}
