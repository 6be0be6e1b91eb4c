package service

import (
	"context"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/models"
)

type appInfoService struct {
	version models.VersionResponse

	logger *logger.Logger
}

// NewAppInfoService reports cfg.Version when set and the build version
// otherwise. Having neither is a configuration error.
func NewAppInfoService(cfg config.App, build models.AppBuildInfo, logger *logger.Logger) (AppInfoService, error) {
	version := cfg.Version
	if version == "" {
		version = build.BuildVersion()
	}
	if version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	return &appInfoService{
		version: models.VersionResponse{
			Version: version,
			Date:    build.BuildDate(),
			Commit:  build.BuildCommit(),
		},
		logger: logger,
	}, nil
}

// GetAppVersion reports the server build. It never fails.
func (s *appInfoService) GetAppVersion(ctx context.Context) models.VersionResponse {
	return s.version
}
