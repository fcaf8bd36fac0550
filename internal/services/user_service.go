package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"chat-backend/internal/auth"
	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo   UserRepository
	media  MediaStore
	tokens *auth.TokenManager
}

func NewUserService(repo UserRepository, media MediaStore, tokens *auth.TokenManager) *UserService {
	return &UserService{
		repo:   repo,
		media:  media,
		tokens: tokens,
	}
}

func (s *UserService) Register(ctx context.Context, req *models.SignupRequest) (*models.UserResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, ErrInvalidRequest
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		slog.InfoContext(ctx, "Registration rejected, email already exists", "email", email)
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Email:     email,
		FullName:  strings.TrimSpace(req.FullName),
		Password:  string(hashedPassword),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.attachToHierarchy(ctx, user, req); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered successfully", "userID", user.ID.Hex(), "email", user.Email, "role", user.Role)
	resp := user.ToResponse()
	return &resp, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateProfile applies the fields present in req
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateUserRequest) (*models.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: fullName cannot be empty", ErrInvalidRequest)
		}
		user.FullName = name
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

// UpdateAvatar uploads a new profile picture
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *multipart.FileHeader) (*models.UserResponse, error) {
	if file == nil {
		return nil, fmt.Errorf("%w: profilePic is required", ErrInvalidRequest)
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.media.Upload(ctx, avatarFolder, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}
	user.ProfilePic = url
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

// List searches users other than the caller by name or email, optionally within one role
func (s *UserService) List(ctx context.Context, callerID, search, role string, page, limit int64) (*models.PaginatedUsersResponse, error) {
	callerOID, err := parseID("user", callerID)
	if err != nil {
		return nil, err
	}
	if role != "" && !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}
	if page, limit, err = pageWindow(page, limit); err != nil {
		return nil, err
	}

	users, total, err := s.repo.Search(ctx, strings.TrimSpace(search), role, callerOID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}

	return &models.PaginatedUsersResponse{
		Users:       responses,
		Total:       total,
		CurrentPage: page,
		TotalPages:  models.TotalPages(total, limit),
	}, nil
}

// ListForChat returns the users the caller may start a chat with, scoped by the role hierarchy
func (s *UserService) ListForChat(ctx context.Context, callerID string) ([]models.UserResponse, error) {
	caller, err := s.load(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != "" && !models.ValidRole(caller.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, caller.Role)
	}

	users, err := s.repo.ListVisibleTo(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

// attachToHierarchy links a new account to its parents. A User may name an Admin and
// inherits that Admin's SuperAdmin; an Admin must name a SuperAdmin.
func (s *UserService) attachToHierarchy(ctx context.Context, user *models.User, req *models.SignupRequest) error {
	switch user.Role {
	case models.RoleUser:
		if req.Admin == "" {
			return nil
		}
		admin, err := s.parent(ctx, req.Admin, models.RoleAdmin)
		if err != nil {
			return err
		}
		user.Admin = &admin.ID
		user.SuperAdmin = admin.SuperAdmin
	case models.RoleAdmin:
		if req.SuperAdmin == "" {
			return fmt.Errorf("%w: superAdmin is required for admins", ErrInvalidRequest)
		}
		super, err := s.parent(ctx, req.SuperAdmin, models.RoleSuperAdmin)
		if err != nil {
			return err
		}
		user.SuperAdmin = &super.ID
	}
	return nil
}

func (s *UserService) parent(ctx context.Context, id, role string) (*models.User, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s id", ErrInvalidRequest, role)
	}
	parent, err := s.repo.FindByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && parent.Role != role) {
		return nil, fmt.Errorf("%w: invalid %s id", ErrInvalidRequest, role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", role, err)
	}
	return parent, nil
}

func (s *UserService) load(ctx context.Context, userID string) (*models.User, error) {
	oid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
