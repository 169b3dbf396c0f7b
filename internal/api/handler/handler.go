package handler

import (
	"github.com/d60-Lab/fan-platform/config"
	"github.com/d60-Lab/fan-platform/internal/service"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	cfg        *config.Config
	authSvc    service.AuthService
	creatorSvc service.CreatorService
	supportSvc service.SupportService
	fileSvc    service.FileService
	statsSvc   service.StatsService
}

func New(
	cfg *config.Config,
	authSvc service.AuthService,
	creatorSvc service.CreatorService,
	supportSvc service.SupportService,
	fileSvc service.FileService,
	statsSvc service.StatsService,
) *Handler {
	return &Handler{
		cfg:        cfg,
		authSvc:    authSvc,
		creatorSvc: creatorSvc,
		supportSvc: supportSvc,
		fileSvc:    fileSvc,
		statsSvc:   statsSvc,
	}
}
