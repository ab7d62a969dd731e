package factory

import (
	"ai_content/repository"
	"ai_content/repository/interfaces"
	"context"
)

type Factory interface {
	NewSession(ctx context.Context) interfaces.Session
	NewContentTaskRepository(session interfaces.Session) (repository.ContentTaskRepository, error)
}
