package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tutorhub/infras/otel"
	"tutorhub/infras/postgres"
	"tutorhub/internal/domains/provider/model"
	gDto "tutorhub/shared/dto"
	gRepo "tutorhub/shared/repository"
)

type Connection interface {
	Insert(ctx context.Context, model model.Connection) error
	Upsert(ctx context.Context, model model.Connection, conflictColumn string) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Connection, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Connection, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Connection]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Connection {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Connection](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
