package services

import (
	"context"

	"inkpress/app/apperr"
	"inkpress/app/logger"
	"inkpress/app/models"
	"inkpress/app/repositories"
)

// IdentityProvider checks credentials and issues tokens.
type IdentityProvider interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	IssueToken(subject *models.Subject) (string, error)
}

// Session is returned after a successful registration or login.
type Session struct {
	User  models.Profile `json:"user"`
	Token string         `json:"token"`
}

// AccountService handles registration, login and profile lookups.
type AccountService struct {
	identity IdentityProvider
	users    repositories.UserRepository
	log      *logger.Logger
}

func NewAccountService(identity IdentityProvider, users repositories.UserRepository, log *logger.Logger) *AccountService {
	return &AccountService{
		identity: identity,
		users:    users,
		log:      log.With("service", "AccountService"),
	}
}

func (s *AccountService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	user, err := s.identity.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	s.log.Info("Account registered", "user_id", user.ID)
	return s.session("accounts.register", user)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.identity.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.session("accounts.login", user)
}

func (s *AccountService) session(op string, user *models.User) (*Session, error) {
	token, err := s.identity.IssueToken(user.Subject())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return &Session{User: user.Profile(), Token: token}, nil
}

// Me returns the profile of the acting subject.
func (s *AccountService) Me(ctx context.Context, subject *models.Subject) (models.Profile, error) {
	const op = "accounts.me"
	if subject == nil {
		return models.Profile{}, apperr.New(apperr.Unauthorized, op, msgNotAuthed)
	}
	user, err := s.users.GetByID(ctx, subject.ID)
	if err != nil {
		return models.Profile{}, classify(op, err, "Account not found")
	}
	return user.Profile(), nil
}
