package services

import (
	"context"
	"testing"

	"chat-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommunityService(t *testing.T) (*CommunityService, *fakeCommunityRepo, string, string) {
	t.Helper()
	users := newFakeUserRepo()
	super := &models.User{FullName: "Root", Email: "root@example.com", Role: models.RoleSuperAdmin}
	admin := &models.User{FullName: "Adam", Email: "adam@example.com", Role: models.RoleAdmin}
	require.NoError(t, users.Create(context.Background(), super))
	require.NoError(t, users.Create(context.Background(), admin))

	repo := &fakeCommunityRepo{}
	return NewCommunityService(repo, users), repo, super.ID.Hex(), admin.ID.Hex()
}

func TestCreateCommunity(t *testing.T) {
	svc, _, super, admin := newTestCommunityService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, super, &models.CreateCommunityRequest{CommunityID: " F230041 ", Name: "Fretbox UAT"})
	require.NoError(t, err)
	assert.Equal(t, "F230041", c.CommunityID)
	assert.False(t, c.ID.IsZero())
	assert.Empty(t, c.Description)

	_, err = svc.Create(ctx, super, &models.CreateCommunityRequest{CommunityID: "F230041", Name: "Again"})
	assert.ErrorIs(t, err, ErrCommunityExists)

	_, err = svc.Create(ctx, super, &models.CreateCommunityRequest{CommunityID: "F1", Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Create(ctx, admin, &models.CreateCommunityRequest{CommunityID: "F2", Name: "Admins cannot"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBulkCreateCommunitiesSkipsInvalidEntries(t *testing.T) {
	svc, repo, super, _ := newTestCommunityService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, super, &models.CreateCommunityRequest{CommunityID: "C1", Name: "Existing"})
	require.NoError(t, err)

	result, err := svc.BulkCreate(ctx, super, []models.CreateCommunityRequest{
		{CommunityID: "C1", Name: "Duplicate of stored"},
		{CommunityID: "C2", Name: " Beta "},
		{CommunityID: "", Name: "No id"},
		{CommunityID: "C3", Name: "Alpha", Description: "First"},
		{CommunityID: "C2", Name: "Duplicate in batch"},
	})
	require.NoError(t, err)

	require.Len(t, result.Created, 2)
	assert.Equal(t, "Beta", result.Created[0].Name)
	assert.Equal(t, "Welcome to Beta", result.Created[0].Description)
	assert.Equal(t, "First", result.Created[1].Description)

	var skipped []int
	for _, s := range result.Skipped {
		skipped = append(skipped, s.Index)
	}
	assert.Equal(t, []int{0, 2, 4}, skipped)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, repo.communities, 3)
	assert.Equal(t, []string{"Alpha", "Beta", "Existing"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestBulkCreateCommunitiesNothingInsertable(t *testing.T) {
	svc, repo, super, admin := newTestCommunityService(t)
	ctx := context.Background()

	result, err := svc.BulkCreate(ctx, super, []models.CreateCommunityRequest{{Name: "No id"}})
	assert.ErrorIs(t, err, ErrCommunityExists)
	require.NotNil(t, result)
	assert.Len(t, result.Skipped, 1)
	assert.Empty(t, repo.communities)

	_, err = svc.BulkCreate(ctx, super, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.BulkCreate(ctx, admin, []models.CreateCommunityRequest{{CommunityID: "C9", Name: "Nope"}})
	assert.ErrorIs(t, err, ErrForbidden)
}
