package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/service"
)

type LikeHandler struct {
	svc *service.LikeService
}

func NewLikeHandler(svc *service.LikeService) *LikeHandler {
	return &LikeHandler{svc: svc}
}

// ToggleVideo handles POST /likes/toggle/v/:videoId
func (h *LikeHandler) ToggleVideo(c fiber.Ctx) error {
	id, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	res, err := h.svc.ToggleVideo(c.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return toggled(c, res, "Video liked", "Video like removed")
}

// ToggleComment handles POST /likes/toggle/c/:commentId
func (h *LikeHandler) ToggleComment(c fiber.Ctx) error {
	id, err := objectIDParam(c, "commentId")
	if err != nil {
		return err
	}
	res, err := h.svc.ToggleComment(c.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return toggled(c, res, "Comment liked", "Comment like removed")
}

// ToggleTweet handles POST /likes/toggle/t/:tweetId
func (h *LikeHandler) ToggleTweet(c fiber.Ctx) error {
	id, err := objectIDParam(c, "tweetId")
	if err != nil {
		return err
	}
	res, err := h.svc.ToggleTweet(c.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return toggled(c, res, "Tweet liked", "Tweet like removed")
}

// LikedVideos handles GET /likes/videos?page=&limit=
func (h *LikeHandler) LikedVideos(c fiber.Ctx) error {
	req, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := h.svc.LikedVideos(c.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return success(c, page, "Liked videos fetched successfully")
}
