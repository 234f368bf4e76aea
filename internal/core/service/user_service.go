package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fidcar/user-service/internal/core/domain"
	"github.com/fidcar/user-service/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxEmailLength  = 180
	maxNameLength   = 100
)

// UserService implements the user-management use cases on top of a UserRepository.
type UserService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	revoker  ports.TokenRevoker
	validate *validator.Validate
	pageSize int
	log      zerolog.Logger
}

// NewUserService wires the service. revoker may be nil, in which case role
// changes and deletions do not invalidate outstanding tokens.
func NewUserService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	revoker ports.TokenRevoker,
	pageSize int,
	log zerolog.Logger,
) *UserService {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		revoker:  revoker,
		validate: validator.New(),
		pageSize: pageSize,
		log:      log,
	}
}

// List returns one page of users. Pages below 1 are clamped to 1 and pages past
// the end come back empty.
func (s *UserService) List(ctx context.Context, page int) (*ports.ListUsersResult, error) {
	if page < 1 {
		page = 1
	}

	// the offset of such a page does not fit in an int; only the total is fetched
	unreachable := page-1 > (math.MaxInt-1)/s.pageSize
	fetch := page
	if unreachable {
		fetch = 1
	}

	users, total, err := s.repo.FindPage(ctx, fetch, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil || unreachable {
		users = []*domain.User{}
	}

	totalPages := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))

	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       page,
		PageSize:   s.pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get returns a single user to any authenticated requester.
func (s *UserService) Get(ctx context.Context, requester domain.Requester, id string) (*domain.User, error) {
	if !requester.Authenticated {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.FindByID(ctx, id)
}

// Create registers a new account on behalf of an admin. The new user always
// receives exactly the base role, whatever roles the caller supplied.
func (s *UserService) Create(ctx context.Context, requester domain.Requester, in ports.CreateUserInput) (*domain.User, error) {
	if !requester.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	email := normalizeEmail(in.Email)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)

	verr := &domain.ValidationError{}
	s.checkEmail(verr, email)
	checkName(verr, "first_name", firstName)
	checkName(verr, "last_name", lastName)
	if in.Password == "" {
		verr.Add("password", "is required")
	}
	if !verr.Empty() {
		return nil, verr
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		Roles:        []string{domain.RoleUser},
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.NewValidationError("email", "is already in use")
		}
		s.log.Error().Err(err).Str("email", email).Msg("failed to create user")
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("requester_id", requester.ID).Msg("user created")
	return created, nil
}

// Update applies an admin edit. The password is never touched here.
func (s *UserService) Update(ctx context.Context, requester domain.Requester, id string, in ports.UpdateUserInput) (*domain.User, error) {
	if !requester.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	emailChanged := false
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		s.checkEmail(verr, email)
		emailChanged = email != user.Email
		user.Email = email
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
		checkName(verr, "first_name", user.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
		checkName(verr, "last_name", user.LastName)
	}

	rolesChanged := false
	if in.Roles != nil {
		roles, ok := normalizeRoles(in.Roles)
		if !ok {
			verr.Add("roles", "must be a non-empty set of known roles")
		} else {
			rolesChanged = !sameRoles(roles, user.Roles)
			user.Roles = roles
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if emailChanged {
		if err := s.ensureEmailFree(ctx, user.Email, user.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.NewValidationError("email", "is already in use")
		}
		return nil, err
	}

	if rolesChanged {
		s.revoke(ctx, user.ID)
	}

	s.log.Info().Str("user_id", user.ID).Str("requester_id", requester.ID).Bool("roles_changed", rolesChanged).Msg("user updated")
	return user, nil
}

// ChangeOwnPassword is the self-service form: the old password must verify,
// an empty new password keeps the current hash, and the call still persists
// any name change and reports success.
func (s *UserService) ChangeOwnPassword(ctx context.Context, requester domain.Requester, in ports.ChangePasswordInput) (*ports.ChangePasswordResult, error) {
	if !requester.Authenticated || requester.ID == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.repo.FindByID(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	if in.OldPassword == "" || !s.hasher.Check(in.OldPassword, user.PasswordHash) {
		s.log.Warn().Str("user_id", user.ID).Msg("old password is invalid")
		return nil, domain.ErrInvalidCredentials
	}

	verr := &domain.ValidationError{}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
		checkName(verr, "first_name", user.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
		checkName(verr, "last_name", user.LastName)
	}
	if !verr.Empty() {
		return nil, verr
	}

	changed := false
	if in.NewPassword != "" {
		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
		changed = true
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Bool("password_changed", changed).Msg("own account updated")
	return &ports.ChangePasswordResult{User: user, PasswordChanged: changed}, nil
}

// Delete hard-removes a user on behalf of an admin.
func (s *UserService) Delete(ctx context.Context, requester domain.Requester, id string) error {
	if !requester.IsAdmin() {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.revoke(ctx, id)
	s.log.Info().Str("user_id", id).Str("requester_id", requester.ID).Msg("user deleted")
	return nil
}

// EnsureAdmin creates an administrator with the given credentials unless a
// user with that email already exists. It is meant for process start-up.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, bool, error) {
	email = normalizeEmail(email)

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	verr := &domain.ValidationError{}
	s.checkEmail(verr, email)
	if password == "" {
		verr.Add("password", "is required")
	}
	if !verr.Empty() {
		return nil, false, verr
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		FirstName:    "Admin",
		LastName:     "Admin",
		PasswordHash: hash,
		Roles:        []string{domain.RoleUser, domain.RoleAdmin},
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info().Str("user_id", created.ID).Str("email", email).Msg("bootstrap admin created")
	return created, true, nil
}

func (s *UserService) checkEmail(verr *domain.ValidationError, email string) {
	switch {
	case email == "":
		verr.Add("email", "is required")
	case len(email) > maxEmailLength:
		verr.Add("email", fmt.Sprintf("must be at most %d characters", maxEmailLength))
	case s.validate.Var(email, "email") != nil:
		verr.Add("email", "must be a valid email")
	}
}

// ensureEmailFree fails with a validation error when email belongs to a user
// other than selfID.
func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	other, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		return domain.NewValidationError("email", "is already in use")
	}
	return nil
}

func (s *UserService) revoke(ctx context.Context, userID string) {
	if s.revoker == nil {
		return
	}
	if err := s.revoker.RevokeUser(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke tokens")
	}
}

func checkName(verr *domain.ValidationError, field, value string) {
	switch {
	case value == "":
		verr.Add(field, "is required")
	case len(value) > maxNameLength:
		verr.Add(field, fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeRoles trims and de-duplicates roles, keeping input order. It fails
// on an empty result or an unknown role.
func normalizeRoles(in []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.ToUpper(strings.TrimSpace(r))
		if !domain.IsKnownRole(r) {
			return nil, false
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out, len(out) > 0
}

func sameRoles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, r := range a {
		set[r] = struct{}{}
	}
	for _, r := range b {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
