package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/fidcar/user-service/internal/core/domain"
)

// userModel mirrors the users table.
type userModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Email        string    `gorm:"type:varchar(180);uniqueIndex;not null"`
	FirstName    string    `gorm:"type:varchar(100);not null"`
	LastName     string    `gorm:"type:varchar(100);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Roles        []string  `gorm:"serializer:json;type:text;not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (userModel) TableName() string {
	return "users"
}

// UserRepository implements ports.UserRepository on a relational database.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user with a freshly generated UUID.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m := fromDomain(user)
	m.ID = uuid.NewString()
	m.CreatedAt = time.Time{}
	m.UpdatedAt = time.Time{}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, errors.Wrap(err, "failed to create user")
	}
	return toDomain(m), nil
}

// Update writes every mutable column of user. The ID and creation time are never changed.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		return domain.ErrUserNotFound
	}
	m := fromDomain(user)
	m.UpdatedAt = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&userModel{ID: user.ID}).
		Select("email", "first_name", "last_name", "password_hash", "roles", "updated_at").
		Updates(m)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ErrUserExists
		}
		return errors.Wrap(res.Error, "failed to update user")
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	user.UpdatedAt = m.UpdatedAt
	return nil
}

// Delete hard-removes the user row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userModel{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete user")
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindPage returns users ordered by creation time, then id.
func (r *UserRepository) FindPage(ctx context.Context, page, pageSize int) ([]*domain.User, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&userModel{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}
	if pageSize < 1 || int64(page-1) >= lastPage(total, pageSize) {
		return []*domain.User{}, total, nil
	}

	var rows []userModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, toDomain(&rows[i]))
	}
	return users, total, nil
}

// lastPage is the number of pages needed for total rows. Offsets are only
// computed for pages up to it, so they never exceed total.
func lastPage(total int64, pageSize int) int64 {
	return (total + int64(pageSize) - 1) / int64(pageSize)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to find user")
	}
	return toDomain(&m), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func toDomain(m *userModel) *domain.User {
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		Roles:        append([]string(nil), m.Roles...),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func fromDomain(u *domain.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Roles:        append([]string(nil), u.Roles...),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
