package domain

import (
	"io"
	"time"
)

// DefaultImage is rendered for users who never set a profile image.
const DefaultImage = "https://static.productionready.io/images/smiley-cyrus.jpg"

// UserModel is the GORM model for the users table. Username and email are
// stored lowercased so the unique indexes are case-insensitive.
type UserModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Bio          string    `gorm:"type:text"`
	Image        string    `gorm:"type:varchar(1024)"`
	PasswordSalt string    `gorm:"type:varchar(64)"`
	PasswordHash string    `gorm:"type:varchar(256)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		Bio:          m.Bio,
		Image:        m.Image,
		PasswordSalt: m.PasswordSalt,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Bio:          u.Bio,
		Image:        u.Image,
		PasswordSalt: u.PasswordSalt,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// User is an identity record. Password material never leaves the process:
// it is excluded from JSON so cached copies carry none of it.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	Image        string    `json:"image"`
	PasswordSalt string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ImageOrDefault returns the user's image or the placeholder.
func (u *User) ImageOrDefault() string {
	if u.Image == "" {
		return DefaultImage
	}
	return u.Image
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries the fields to change; nil means unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
	Password *string `json:"password"`
}

// RegisterBody is the JSON body of a registration, {"user": {...}}.
type RegisterBody struct {
	User RegisterRequest `json:"user"`
}

// LoginBody is the JSON body of a login, {"user": {...}}.
type LoginBody struct {
	User LoginRequest `json:"user"`
}

// UpdateUserBody is the JSON body of a profile update, {"user": {...}}.
type UpdateUserBody struct {
	User UpdateUserRequest `json:"user"`
}

// ImageUpload is a profile image received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// AuthUser is the view of the authenticated user. Token is freshly issued
// every time this view is built.
type AuthUser struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

// Profile is the public view of a user as seen by a viewer.
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}
