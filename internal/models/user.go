package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles form a tree: a SuperAdmin owns Admins, an Admin owns Users.
const (
	RoleUser       = "User"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "SuperAdmin"
)

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

/** --------------------ENTITIES-------------------- */
// User represents the user document. Admin is set for a User that belongs to an Admin;
// SuperAdmin is set for an Admin and inherited by that Admin's Users.
type User struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Email      string              `bson:"email" json:"email"`
	FullName   string              `bson:"fullName" json:"fullName"`
	Password   string              `bson:"password" json:"-"` // bcrypt hash, never returned
	Phone      string              `bson:"phone,omitempty" json:"phone,omitempty"`
	ProfilePic string              `bson:"profilePic" json:"profilePic"`
	Role       string              `bson:"role" json:"role"`
	Admin      *primitive.ObjectID `bson:"admin,omitempty" json:"admin,omitempty"`
	SuperAdmin *primitive.ObjectID `bson:"superAdmin,omitempty" json:"superAdmin,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

/** -------------------- DTOs -------------------- */
// Request
type SignupRequest struct {
	FullName string `json:"fullName" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone,omitempty"`

	// Role defaults to User. A User may name its Admin; an Admin must name its SuperAdmin.
	Role       string `json:"role,omitempty" binding:"omitempty,oneof=User Admin SuperAdmin"`
	Admin      string `json:"admin,omitempty"`
	SuperAdmin string `json:"superAdmin,omitempty"`
}

// LoginRequest represents the request for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest carries the mutable profile fields
type UpdateUserRequest struct {
	FullName *string `json:"fullName,omitempty" binding:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone,omitempty"`
}

// Response
type UserResponse struct {
	ID         string    `json:"_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Phone      string    `json:"phone,omitempty"`
	ProfilePic string    `json:"profilePic"`
	Role       string    `json:"role"`
	Admin      string    `json:"admin,omitempty"`
	SuperAdmin string    `json:"superAdmin,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LoginResponse represents the response for a successful login
// swagger:model
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ToResponse strips the password hash
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID.Hex(),
		Email:      u.Email,
		FullName:   u.FullName,
		Phone:      u.Phone,
		ProfilePic: u.ProfilePic,
		Role:       u.Role,
		Admin:      hexOrEmpty(u.Admin),
		SuperAdmin: hexOrEmpty(u.SuperAdmin),
		CreatedAt:  u.CreatedAt,
	}
}

// CanSee reports whether other shows up in u's chat directory. A SuperAdmin sees the
// Admins and Users under it. An Admin sees its Users, its sibling Admins and its
// SuperAdmin. A User sees its Admin, its SuperAdmin and the Users sharing its Admin.
// Users without an Admin only see each other.
func (u *User) CanSee(other *User) bool {
	if other.ID == u.ID {
		return false
	}
	switch u.Role {
	case RoleSuperAdmin:
		return (other.Role == RoleAdmin || other.Role == RoleUser) && sameRef(other.SuperAdmin, &u.ID)
	case RoleAdmin:
		switch other.Role {
		case RoleUser:
			return sameRef(other.Admin, &u.ID)
		case RoleAdmin:
			return sameRef(other.SuperAdmin, u.SuperAdmin)
		case RoleSuperAdmin:
			return u.SuperAdmin != nil && other.ID == *u.SuperAdmin
		}
	case RoleUser, "":
		switch other.Role {
		case RoleAdmin:
			return u.Admin != nil && other.ID == *u.Admin
		case RoleSuperAdmin:
			return u.SuperAdmin != nil && other.ID == *u.SuperAdmin
		case RoleUser, "":
			return sameRef(other.Admin, u.Admin)
		}
	}
	return false
}

// sameRef treats two missing references as equal
func sameRef(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}
