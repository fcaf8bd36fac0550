package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-backend/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// CommunityService manages the communities users are grouped under. Only a SuperAdmin
// may create them; any authenticated user may list them.
type CommunityService struct {
	repo  CommunityRepository
	users UserRepository
}

func NewCommunityService(repo CommunityRepository, users UserRepository) *CommunityService {
	return &CommunityService{repo: repo, users: users}
}

func (s *CommunityService) Create(ctx context.Context, actorID string, req *models.CreateCommunityRequest) (*models.Community, error) {
	if err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	community, err := newCommunity(req, "")
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Existing(ctx, []string{community.CommunityID})
	if err != nil {
		return nil, fmt.Errorf("failed to check community: %w", err)
	}
	if existing[community.CommunityID] {
		return nil, fmt.Errorf("%w: %q", ErrCommunityExists, community.CommunityID)
	}

	if err := s.repo.Create(ctx, community); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %q", ErrCommunityExists, community.CommunityID)
		}
		return nil, fmt.Errorf("failed to create community: %w", err)
	}

	slog.InfoContext(ctx, "Community created", "communityID", community.CommunityID, "by", actorID)
	return community, nil
}

// BulkCreate inserts every valid entry and reports the rest by index. Entries without a
// description get a welcome line. When nothing is insertable the report is returned
// together with ErrCommunityExists.
func (s *CommunityService) BulkCreate(ctx context.Context, actorID string, reqs []models.CreateCommunityRequest) (*models.BulkCommunitiesResponse, error) {
	if err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: at least one community is required", ErrInvalidRequest)
	}

	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, strings.TrimSpace(req.CommunityID))
	}
	existing, err := s.repo.Existing(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check communities: %w", err)
	}

	result := &models.BulkCommunitiesResponse{Created: []models.Community{}, Skipped: []models.BulkSkip{}}
	seen := make(map[string]bool, len(reqs))
	for i := range reqs {
		community, err := newCommunity(&reqs[i], "Welcome to %s")
		if err != nil {
			result.Skipped = append(result.Skipped, models.BulkSkip{Index: i, Message: "missing required fields 'communityId' or 'name'"})
			continue
		}
		if existing[community.CommunityID] || seen[community.CommunityID] {
			result.Skipped = append(result.Skipped, models.BulkSkip{Index: i, Message: fmt.Sprintf("community ID '%s' already exists", community.CommunityID)})
			continue
		}
		seen[community.CommunityID] = true
		result.Created = append(result.Created, *community)
	}

	if len(result.Created) == 0 {
		return result, fmt.Errorf("%w: no valid communities to insert", ErrCommunityExists)
	}
	if err := s.repo.CreateMany(ctx, result.Created); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", ErrCommunityExists, err)
		}
		return nil, fmt.Errorf("failed to create communities: %w", err)
	}

	slog.InfoContext(ctx, "Communities created", "created", len(result.Created), "skipped", len(result.Skipped), "by", actorID)
	return result, nil
}

func (s *CommunityService) List(ctx context.Context) ([]models.Community, error) {
	communities, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	return communities, nil
}

func (s *CommunityService) requireSuperAdmin(ctx context.Context, actorID string) error {
	oid, err := parseID("user", actorID)
	if err != nil {
		return err
	}
	actor, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return notFoundOr(err, "user")
	}
	if actor.Role != models.RoleSuperAdmin {
		return fmt.Errorf("%w: only a super admin can manage communities", ErrForbidden)
	}
	return nil
}

// newCommunity trims and validates req. defaultDescription, when set, is a format
// applied to the name if no description was given.
func newCommunity(req *models.CreateCommunityRequest, defaultDescription string) (*models.Community, error) {
	id, name := strings.TrimSpace(req.CommunityID), strings.TrimSpace(req.Name)
	if id == "" || name == "" {
		return nil, fmt.Errorf("%w: communityId and name are required", ErrInvalidRequest)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" && defaultDescription != "" {
		description = fmt.Sprintf(defaultDescription, name)
	}
	return &models.Community{
		CommunityID: id,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
