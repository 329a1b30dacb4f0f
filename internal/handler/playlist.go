package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/service"
)

type PlaylistHandler struct {
	svc *service.PlaylistService
}

func NewPlaylistHandler(svc *service.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{svc: svc}
}

// Create handles POST /playlist
func (h *PlaylistHandler) Create(c fiber.Ctx) error {
	var body model.CreatePlaylistRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	pl, err := h.svc.Create(c.Context(), middleware.PrincipalFrom(c), body)
	if err != nil {
		return err
	}
	return created(c, pl, "Playlist created successfully")
}

// ListForUser handles GET /playlist/user/:userId?page=&limit=
func (h *PlaylistHandler) ListForUser(c fiber.Ctx) error {
	owner, err := objectIDParam(c, "userId")
	if err != nil {
		return err
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := h.svc.ListForUser(c.Context(), owner, req)
	if err != nil {
		return err
	}
	return success(c, page, "User playlists fetched successfully")
}

// Get handles GET /playlist/:playlistId
func (h *PlaylistHandler) Get(c fiber.Ctx) error {
	id, err := objectIDParam(c, "playlistId")
	if err != nil {
		return err
	}
	pl, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return success(c, pl, "Playlist fetched successfully")
}

// Update handles PATCH /playlist/:playlistId
func (h *PlaylistHandler) Update(c fiber.Ctx) error {
	id, err := objectIDParam(c, "playlistId")
	if err != nil {
		return err
	}
	var body model.UpdatePlaylistRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	pl, err := h.svc.Update(c.Context(), middleware.PrincipalFrom(c), id, body)
	if err != nil {
		return err
	}
	return success(c, pl, "Playlist updated successfully")
}

// Delete handles DELETE /playlist/:playlistId
func (h *PlaylistHandler) Delete(c fiber.Ctx) error {
	id, err := objectIDParam(c, "playlistId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), middleware.PrincipalFrom(c), id); err != nil {
		return err
	}
	return success(c, fiber.Map{"playlistId": id}, "Playlist deleted successfully")
}

// AddVideo handles PATCH /playlist/add/:videoId/:playlistId
func (h *PlaylistHandler) AddVideo(c fiber.Ctx) error {
	videoID, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	playlistID, err := objectIDParam(c, "playlistId")
	if err != nil {
		return err
	}
	pl, err := h.svc.AddVideo(c.Context(), middleware.PrincipalFrom(c), videoID, playlistID)
	if err != nil {
		return err
	}
	return success(c, pl, "Video added to playlist")
}

// RemoveVideo handles PATCH /playlist/remove/:videoId/:playlistId
func (h *PlaylistHandler) RemoveVideo(c fiber.Ctx) error {
	videoID, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	playlistID, err := objectIDParam(c, "playlistId")
	if err != nil {
		return err
	}
	pl, err := h.svc.RemoveVideo(c.Context(), middleware.PrincipalFrom(c), videoID, playlistID)
	if err != nil {
		return err
	}
	return success(c, pl, "Video removed from playlist")
}
