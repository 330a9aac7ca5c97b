package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tutorhub/infras/otel"
	"tutorhub/infras/postgres"
	"tutorhub/internal/domains/pricing/model"
	gDto "tutorhub/shared/dto"
	gRepo "tutorhub/shared/repository"
)

type Rate interface {
	Insert(ctx context.Context, model model.TutorSubjectRate) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.TutorSubjectRate, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.TutorSubjectRate, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.TutorSubjectRate]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Rate {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.TutorSubjectRate](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
