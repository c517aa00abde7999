package api

import (
	"context"

	"github.com/chefsync/backline/internal/entity"
)

// DashboardService reads the aggregate dashboard endpoints.
type DashboardService struct {
	c *Client
}

// Stats fetches the dashboard counters.
func (s *DashboardService) Stats(ctx context.Context) (entity.DashboardStats, error) {
	var stats entity.DashboardStats
	err := s.c.getJSON(ctx, "dashboard/stats/", nil, &stats)
	return stats, err
}

// Health fetches the backend's self-reported health summary.
func (s *DashboardService) Health(ctx context.Context) (entity.SystemHealth, error) {
	var h entity.SystemHealth
	err := s.c.getJSON(ctx, "dashboard/health/", nil, &h)
	return h, err
}
