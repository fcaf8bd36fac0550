package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chat-backend/internal/api/middleware"
	"chat-backend/internal/models"
	"chat-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	communityService CommunityService
}

func NewCommunityHandler(communityService CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

// CreateCommunity godoc
// @Summary Create a community
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCommunityRequest true "Community"
// @Success 201 {object} models.Community
// @Failure 400 {object} response.ErrorResponse "Missing communityId or name"
// @Failure 403 {object} response.ErrorResponse "Caller is not a super admin"
// @Failure 409 {object} response.ErrorResponse "communityId already exists"
// @Router /community/add [post]
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	var req models.CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	community, err := h.communityService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

// BulkCreateCommunities godoc
// @Summary Create many communities
// @Description Inserts every valid entry; malformed or duplicate entries are reported by index in "skipped"
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []models.CreateCommunityRequest true "Communities"
// @Success 201 {object} models.BulkCommunitiesResponse
// @Failure 400 {object} response.ErrorResponse "Body is not a non-empty array"
// @Failure 409 {object} models.BulkCommunitiesResponse "No entry could be inserted"
// @Router /community/alladd [post]
func (h *CommunityHandler) BulkCreateCommunities(c *gin.Context) {
	var raw []json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil || len(raw) == 0 {
		badRequest(c, "request body must be a non-empty array of communities")
		return
	}

	// Entries with the wrong shape are skipped here; the rest are validated by the service
	var (
		reqs    []models.CreateCommunityRequest
		indexes []int
		skipped []models.BulkSkip
	)
	for i, entry := range raw {
		var req models.CreateCommunityRequest
		if err := json.Unmarshal(entry, &req); err != nil {
			skipped = append(skipped, models.BulkSkip{Index: i, Message: "'communityId' and 'name' must be strings"})
			continue
		}
		reqs = append(reqs, req)
		indexes = append(indexes, i)
	}

	result := &models.BulkCommunitiesResponse{Created: []models.Community{}}
	var err error
	if len(reqs) > 0 {
		result, err = h.communityService.BulkCreate(c.Request.Context(), middleware.UserID(c), reqs)
		if err != nil && result == nil {
			respondError(c, err)
			return
		}
		for i := range result.Skipped {
			result.Skipped[i].Index = indexes[result.Skipped[i].Index]
		}
	}
	result.Skipped = mergeSkips(skipped, result.Skipped)

	if len(result.Created) == 0 {
		if err == nil {
			err = services.ErrCommunityExists
		}
		if errors.Is(err, services.ErrCommunityExists) {
			c.JSON(http.StatusConflict, result)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListCommunities godoc
// @Summary List communities
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Community
// @Router /community [get]
func (h *CommunityHandler) ListCommunities(c *gin.Context) {
	communities, err := h.communityService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

// mergeSkips interleaves two index-sorted skip lists
func mergeSkips(a, b []models.BulkSkip) []models.BulkSkip {
	out := make([]models.BulkSkip, 0, len(a)+len(b))
	for len(a) > 0 && len(b) > 0 {
		if a[0].Index < b[0].Index {
			out, a = append(out, a[0]), a[1:]
		} else {
			out, b = append(out, b[0]), b[1:]
		}
	}
	out = append(out, a...)
	return append(out, b...)
}
