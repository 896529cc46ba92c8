package service

import (
	"context"

	"ayosnow_backend/internal/domain"
	"ayosnow_backend/internal/interfaces"

	"go.uber.org/zap"
)

const (
	msgDuplicateEmail     = "Email already exists!"
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidRole        = "Invalid role: must be CUSTOMER or WORKER"
	msgUserNotFound       = "User not found"
	msgWorkerOnly         = "Access denied: worker role required"
)

// AccountService implements registration, login and user lookups on top of a
// UserStore.
type AccountService struct {
	store     interfaces.UserStore
	passwords interfaces.PasswordMatcher
	locker    interfaces.Locker
	logger    *zap.Logger
}

// NewAccountService wires the service. locker may be nil, in which case
// registration relies on the store's unique email constraint alone.
func NewAccountService(store interfaces.UserStore, passwords interfaces.PasswordMatcher, locker interfaces.Locker, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:     store,
		passwords: passwords,
		locker:    locker,
		logger:    logger.With(zap.String("component", "AccountService")),
	}
}

// Register stores candidate if no user has its email yet and returns the
// stored record with its assigned id.
func (s *AccountService) Register(ctx context.Context, candidate domain.User) (*domain.User, error) {
	if !candidate.Role.IsValid() {
		return nil, NewInvalidRoleError(msgInvalidRole, nil)
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, candidate.Email)
		if err != nil {
			return nil, NewInternalServerError("failed to lock registration", err)
		}
		defer unlock()
	}

	exists, err := s.store.ExistsByEmail(ctx, candidate.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewDuplicateEmailError(msgDuplicateEmail, nil)
	}

	encoded, err := s.passwords.Encode(candidate.Password)
	if err != nil {
		return nil, NewInternalServerError("failed to encode password", err)
	}
	candidate.Password = encoded

	if err := s.store.Save(ctx, &candidate); err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.Uint64("user_id", candidate.ID),
		zap.String("role", string(candidate.Role)),
	)
	return &candidate, nil
}

// Login returns the user owning email when password matches. Unknown emails and
// wrong passwords fail with the same error.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if IsEntityNotFound(err) {
			return nil, NewInvalidCredentialsError(msgInvalidCredentials, nil)
		}
		return nil, err
	}

	if !s.passwords.Matches(user.Password, password) {
		return nil, NewInvalidCredentialsError(msgInvalidCredentials, nil)
	}
	return user, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uint64) (*domain.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if IsEntityNotFound(err) {
			return nil, NewEntityNotFoundError(msgUserNotFound, err)
		}
		return nil, err
	}
	return user, nil
}

// GetWorkerDashboardData returns the worker's full record; any other role is
// denied.
func (s *AccountService) GetWorkerDashboardData(ctx context.Context, workerID uint64) (*domain.User, error) {
	user, err := s.GetByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if !user.IsWorker() {
		return nil, NewAccessDeniedError(msgWorkerOnly, nil)
	}
	return user, nil
}
