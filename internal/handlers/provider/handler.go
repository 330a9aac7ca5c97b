package provider

import (
	"net/http"

	"tutorhub/infras/otel"
	"tutorhub/internal/domains/provider/model/dto"
	"tutorhub/internal/domains/provider/service"
	"tutorhub/shared/constant"
	"tutorhub/shared/validator"
	"tutorhub/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Provider
	otel    otel.Otel
}

func New(service service.Provider, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/providers", func(routerGroup chi.Router) {
		routerGroup.Put("/connection", handler.ConnectProvider)
		routerGroup.Get("/connection", handler.GetConnection)
		routerGroup.Post("/migrate", handler.MigrateProvider)
	})
}

// ConnectProvider stores the tutor's video provider connection.
// @Summary Connect a video provider
// @Description Replace the tutor's provider connection. Switching providers re-points future scheduled sessions.
// @Tags Provider
// @Accept json
// @Produce json
// @Param request body dto.ConnectProviderRequest true "Connect Provider Request"
// @Success 200 {object} response.Data[dto.ConnectProviderResponse] "Provider connected"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/providers/connection [put]
// @Security BearerAuth
func (handler *Handler) ConnectProvider(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ConnectProvider")
	defer scope.End()

	req := dto.ConnectProviderRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Connect(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to connect provider")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Provider connected successfully by user " + user)

	response.WithJSON(writer, http.StatusOK, res)
}

// GetConnection retrieves the tutor's current provider connection.
// @Summary Get the provider connection
// @Description Retrieve the caller's active video provider connection. Tokens are never returned.
// @Tags Provider
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.ConnectionResponse] "Provider connection"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/providers/connection [get]
// @Security BearerAuth
func (handler *Handler) GetConnection(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetConnection")
	defer scope.End()

	tutorID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	conn, err := handler.service.GetConnection(ctx, tutorID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get provider connection")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Provider connection retrieved successfully")

	response.WithJSON(w, http.StatusOK, conn)
}

// MigrateProvider re-creates meeting links under the active provider.
// @Summary Migrate future sessions to the active provider
// @Description Re-create meeting links for the caller's future scheduled sessions. Partial results are kept.
// @Tags Provider
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.MigrationResult] "Migration result"
// @Failure 500 {object} response.Error
// @Router /v1/providers/migrate [post]
// @Security BearerAuth
func (handler *Handler) MigrateProvider(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".MigrateProvider")
	defer scope.End()

	tutorID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	res, err := handler.service.Migrate(ctx, tutorID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to migrate provider sessions")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Provider migration finished for user " + tutorID)

	response.WithJSON(w, http.StatusOK, res)
}
