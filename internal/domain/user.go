package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleGuest       Role = "GUEST"
	RoleHostPending Role = "HOST_PENDING"
	RoleHost        Role = "HOST"
	RoleAdmin       Role = "ADMIN"
)

type HostStatus string

const (
	HostStatusPending  HostStatus = "PENDING"
	HostStatusApproved HostStatus = "APPROVED"
	HostStatusRejected HostStatus = "REJECTED"
)

func ParseHostStatus(s string) (HostStatus, bool) {
	switch st := HostStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case HostStatusPending, HostStatusApproved, HostStatusRejected:
		return st, true
	}
	return "", false
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Role           Role      `json:"role"`
	ProfileImage   *string   `json:"profile_image"`
	IsHostApproved bool      `json:"is_host_approved"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type HostProfile struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	BusinessNumber string     `json:"business_number"`
	Contact        string     `json:"contact"`
	Status         HostStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UserInfo is the public account view; it never carries the password hash.
type UserInfo struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:           u.ID.String(),
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}

// HostRequestView pairs a host profile with the applicant for admin review.
type HostRequestView struct {
	HostProfile
	Email string `json:"email"`
	Name  string `json:"name"`
}

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8,max=100,password"`
	Name            string `json:"name" validate:"required,min=2,max=50"`
	Phone           string `json:"phone" validate:"required,phone"`
	AgreedToTerms   bool   `json:"agreed_to_terms" validate:"accepted"`
	AgreedToPrivacy bool   `json:"agreed_to_privacy" validate:"accepted"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=100,password"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=50"`
	Phone string `json:"phone" validate:"required,phone"`
}

type HostRequestRequest struct {
	BusinessNumber string `json:"business_number" validate:"required,min=1,max=50"`
	Contact        string `json:"contact" validate:"required,min=1,max=20"`
}

type AuthResponse struct {
	User        *UserInfo `json:"user"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HostRequestResponse struct {
	Message string     `json:"message"`
	Status  HostStatus `json:"status"`
}

type PhotoUploadResponse struct {
	ProfileImage string `json:"profile_image"`
}

// Normalize methods

func (r *RegisterRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *LoginRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
}

func (r *ForgotPasswordRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
}

func (r *ResetPasswordRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
}

func (r *UpdateProfileRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *HostRequestRequest) Normalize() {
	r.BusinessNumber = strings.TrimSpace(r.BusinessNumber)
	r.Contact = strings.TrimSpace(r.Contact)
}

// Validation methods

func (r *RegisterRequest) Validate() error { return Validate(r) }

func (r *LoginRequest) Validate() error { return Validate(r) }

func (r *ForgotPasswordRequest) Validate() error { return Validate(r) }

func (r *ResetPasswordRequest) Validate() error { return Validate(r) }

func (r *UpdateProfileRequest) Validate() error { return Validate(r) }

func (r *HostRequestRequest) Validate() error { return Validate(r) }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
