package handlers

import (
	"github.com/mroshb/apex_bot/internal/ai"
	"github.com/mroshb/apex_bot/internal/config"
	"github.com/mroshb/apex_bot/internal/middleware"
	"github.com/mroshb/apex_bot/internal/services"
)

type HandlerManager struct {
	Config    *config.Config
	Club      *services.ClubService
	AI        ai.Provider
	AILimiter *middleware.RateLimiter

	// async runs slow work off the update worker. Tests replace it to run inline.
	async func(func())
}

func NewHandlerManager(
	cfg *config.Config,
	club *services.ClubService,
	provider ai.Provider,
	aiLimiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		Config:    cfg,
		Club:      club,
		AI:        provider,
		AILimiter: aiLimiter,
		async:     func(fn func()) { go fn() },
	}
}

// IsSuperAdmin reports whether telegramID is the configured bot owner.
func (h *HandlerManager) IsSuperAdmin(telegramID int64) bool {
	return h.Config != nil && h.Config.SuperAdminTgID != 0 && h.Config.SuperAdminTgID == telegramID
}
