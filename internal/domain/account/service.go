package account

import (
	"context"
	"strings"

	"github.com/clinicq/clinicq/internal/platform/apperr"
	"github.com/clinicq/clinicq/internal/platform/auth"
)

type Service struct {
	accounts Repository
}

func NewService(accounts Repository) *Service {
	return &Service{accounts: accounts}
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	Superuser bool   `json:"is_superuser"`
}

// UpdateInput is a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FullName  *string `json:"full_name"`
	Active    *bool   `json:"is_active"`
	Superuser *bool   `json:"is_superuser"`
}

func validateUsername(u string) error {
	if len(u) < 3 || len(u) > 50 {
		return apperr.New(apperr.Invalid, "username must be between 3 and 50 characters")
	}
	return nil
}

func validateEmail(e string) error {
	at := strings.Index(e, "@")
	if at < 1 || at == len(e)-1 || !strings.Contains(e[at:], ".") {
		return apperr.New(apperr.Invalid, "invalid email address")
	}
	return nil
}

func validatePassword(p string) error {
	if len(p) < 8 {
		return apperr.New(apperr.Invalid, "password must be at least 8 characters")
	}
	return nil
}

// Register creates an account. Username and email must be unique.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if len(in.FullName) < 2 {
		return nil, apperr.New(apperr.Invalid, "full_name must be at least 2 characters")
	}

	if taken, err := s.accounts.UsernameTaken(ctx, in.Username, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.New(apperr.Conflict, "username already registered")
	}
	if taken, err := s.accounts.EmailTaken(ctx, in.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.New(apperr.Conflict, "email already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Active:       true,
		Superuser:    in.Superuser,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Authenticate checks credentials. Bad username, bad password and inactive
// account all look the same to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	a, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperr.New(apperr.Unauthenticated, "incorrect username or password")
	}
	if !auth.CheckPassword(password, a.PasswordHash) {
		return nil, apperr.New(apperr.Unauthenticated, "incorrect username or password")
	}
	if !a.Active {
		return nil, apperr.New(apperr.Unauthenticated, "account is inactive")
	}
	return a, nil
}

// Resolve implements auth.Resolver: token subjects map to active accounts.
func (s *Service) Resolve(ctx context.Context, username string) (*auth.Identity, error) {
	a, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, apperr.New(apperr.Unauthenticated, "account is inactive")
	}
	return &auth.Identity{ID: a.ID, Username: a.Username, Superuser: a.Superuser}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return s.accounts.GetByUsername(ctx, username)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	return s.accounts.List(ctx, limit, offset)
}

// Update applies a partial update with uniqueness checks excluding self.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		if err := validateUsername(*in.Username); err != nil {
			return nil, err
		}
		if taken, err := s.accounts.UsernameTaken(ctx, *in.Username, id); err != nil {
			return nil, err
		} else if taken {
			return nil, apperr.New(apperr.Conflict, "username already taken")
		}
		a.Username = *in.Username
	}
	if in.Email != nil {
		if err := validateEmail(*in.Email); err != nil {
			return nil, err
		}
		if taken, err := s.accounts.EmailTaken(ctx, *in.Email, id); err != nil {
			return nil, err
		} else if taken {
			return nil, apperr.New(apperr.Conflict, "email already taken")
		}
		a.Email = *in.Email
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		a.PasswordHash = hash
	}
	if in.FullName != nil {
		if len(*in.FullName) < 2 {
			return nil, apperr.New(apperr.Invalid, "full_name must be at least 2 characters")
		}
		a.FullName = *in.FullName
	}
	if in.Active != nil {
		a.Active = *in.Active
	}
	if in.Superuser != nil {
		a.Superuser = *in.Superuser
	}

	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.accounts.Delete(ctx, id)
}

func (s *Service) Activate(ctx context.Context, id int64) (*Account, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id int64) (*Account, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id int64, active bool) (*Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Active = active
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
