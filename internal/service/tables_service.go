package service

import (
	"context"

	"communityboard/internal/repository"
)

type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Tables   int    `json:"tables"`
}

type TablesService interface {
	Check(ctx context.Context) Health
}

type tablesService struct {
	tablesRepo repository.TablesRepository
}

func NewTablesService(tablesRepo repository.TablesRepository) TablesService {
	return &tablesService{tablesRepo: tablesRepo}
}

// Check never fails; an unreachable database degrades the status.
func (t *tablesService) Check(ctx context.Context) Health {
	if err := t.tablesRepo.Ping(ctx); err != nil {
		return Health{Status: "degraded", Database: "unreachable"}
	}

	count, err := t.tablesRepo.CountTablesDB(ctx)
	if err != nil {
		return Health{Status: "degraded", Database: "ok"}
	}

	return Health{Status: "ok", Database: "ok", Tables: count}
}
