package server

import (
	"clipstream/internal/models"
	"clipstream/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /engagement/likes/toggle
// Returns 201 when the toggle ends in the liked state, 200 when unliked.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		ContentID   uint   `json:"contentId"`
		ContentType string `json:"contentType"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ref, err := parseContentRef(c, req.ContentID, req.ContentType)
	if err != nil {
		return nil
	}

	result, err := s.likeService.ToggleLike(c.UserContext(), userID, ref)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishLikeEvent(userID, ref, result == service.LikeResultLiked)

	status := fiber.StatusOK
	if result == service.LikeResultLiked {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"result":      result,
		"contentId":   ref.ID,
		"contentType": ref.Type,
	})
}

// CreateComment handles POST /engagement/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		ContentID     uint   `json:"contentId"`
		ContentType   string `json:"contentType"`
		Text          string `json:"text"`
		ParentComment *uint  `json:"parentComment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ref, err := parseContentRef(c, req.ContentID, req.ContentType)
	if err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), userID, ref, req.ParentComment, req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishCommentEvent("new", ref, comment)

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /engagement/comments/:id (author only)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID := currentUserID(c)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), userID, commentID, req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishCommentEvent("update", comment.Ref(), comment)

	return c.JSON(comment)
}

// DeleteComment handles DELETE /engagement/comments/:id (author only)
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID := currentUserID(c)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.DeleteComment(c.UserContext(), userID, commentID)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishCommentEvent("delete", comment.Ref(), comment)

	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// GetComments handles GET /engagement/comments
// Query: contentId, contentType, page, limit, parentComment.
func (s *Server) GetComments(c *fiber.Ctx) error {
	contentID := c.QueryInt("contentId", 0)
	if contentID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid content ID"))
	}

	ref, err := parseContentRef(c, uint(contentID), c.Query("contentType"))
	if err != nil {
		return nil
	}

	var parentID *uint
	if parent := c.QueryInt("parentComment", 0); parent > 0 {
		p := uint(parent)
		parentID = &p
	}

	p := parsePagination(c)
	comments, err := s.commentService.ListComments(c.UserContext(), ref, parentID, p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"comments": comments,
		"page":     p.Page,
		"limit":    p.Limit,
	})
}

// ToggleFollow handles POST /engagement/follow/:targetUserId
// Returns 201 when the toggle ends in the followed state, 200 when
// unfollowed, and 400 on self-follow.
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	userID := currentUserID(c)

	targetID, err := s.parseID(c, "targetUserId")
	if err != nil {
		return nil
	}

	result, err := s.followService.ToggleFollow(c.UserContext(), userID, targetID)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishFollowEvent(userID, targetID, result == service.FollowResultFollowed)

	status := fiber.StatusOK
	if result == service.FollowResultFollowed {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"result":       result,
		"targetUserId": targetID,
	})
}

// GetFollowers handles GET /engagement/followers/:userId
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	p := parsePagination(c)
	users, err := s.followService.Followers(c.UserContext(), userID, p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"users": users,
		"page":  p.Page,
		"limit": p.Limit,
	})
}

// GetFollowing handles GET /engagement/following/:userId
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	p := parsePagination(c)
	users, err := s.followService.Following(c.UserContext(), userID, p.Page, p.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"users": users,
		"page":  p.Page,
		"limit": p.Limit,
	})
}
