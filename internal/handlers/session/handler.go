package session

import (
	"net/http"

	"tutorhub/infras/otel"
	"tutorhub/internal/domains/session/model"
	"tutorhub/internal/domains/session/service"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	"tutorhub/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Session
	otel    otel.Otel
}

func New(service service.Session, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/bookings/{id}/session", handler.MaterializeSession)

	router.Route("/sessions", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetSessions)
		routerGroup.Get("/{id}", handler.GetSessionByID)
		routerGroup.Post("/{id}/complete", handler.CompleteSession)
		routerGroup.Post("/{id}/cancel", handler.CancelSession)
		routerGroup.Post("/{id}/no-show", handler.MarkSessionNoShow)
	})
}

// MaterializeSession turns an accepted booking into a scheduled session.
// @Summary Materialize a session from a booking
// @Description Create the session for an accepted booking. Safe to retry; repeated calls return the same session.
// @Tags Session
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 201 {object} response.Data[dto.SessionResponse] "Session created"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/session [post]
// @Security BearerAuth
func (handler *Handler) MaterializeSession(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".MaterializeSession")
	defer scope.End()

	bookingID := chi.URLParam(request, constant.RequestParamID)

	session, err := handler.service.Materialize(ctx, bookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to materialize session")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Session materialized successfully for booking " + bookingID)

	response.WithJSON(writer, http.StatusCreated, session)
}

// GetSessions lists sessions with optional filtering and pagination.
// @Summary Get all sessions
// @Description Retrieve sessions with optional filtering and pagination.
// @Tags Session
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param tutor_id query string false "Filter by tutor"
// @Param student_id query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param settlement_status query string false "Filter by settlement status"
// @Success 200 {object} response.Data[dto.GetSessionsResponse] "List of sessions"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/sessions [get]
// @Security BearerAuth
func (handler *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSessions")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
	}

	for _, field := range []string{model.FieldTutorID, model.FieldStudentID, model.FieldStatus, model.FieldSettlementStatus} {
		if value := r.URL.Query().Get(field); value != "" {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    field,
				Operator: gDto.FilterOperatorEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	sessions, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get sessions")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Sessions retrieved successfully")

	response.WithJSON(w, http.StatusOK, sessions)
}

// GetSessionByID retrieves a session by its ID.
// @Summary Get a session by ID
// @Description Retrieve a session by its unique identifier.
// @Tags Session
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Data[dto.SessionResponse] "Session details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/sessions/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetSessionByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSessionByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	session, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get session by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Session retrieved successfully")

	response.WithJSON(w, http.StatusOK, session)
}

// CompleteSession marks a scheduled session as completed.
// @Summary Complete a session
// @Description Mark a scheduled session as completed.
// @Tags Session
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Message "Session completed successfully"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/sessions/{id}/complete [post]
// @Security BearerAuth
func (handler *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CompleteSession")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Complete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to complete session")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Session completed successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Session completed successfully")
}

// CancelSession cancels a scheduled session.
// @Summary Cancel a session
// @Description Cancel a scheduled session. A cancelled session is never charged.
// @Tags Session
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Message "Session cancelled successfully"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/sessions/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelSession")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Cancel(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel session")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Session cancelled successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Session cancelled successfully")
}

// MarkSessionNoShow marks a scheduled session as a no-show.
// @Summary Mark a session as no-show
// @Description Record that the student did not attend a scheduled session.
// @Tags Session
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Message "Session marked as no-show"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/sessions/{id}/no-show [post]
// @Security BearerAuth
func (handler *Handler) MarkSessionNoShow(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".MarkSessionNoShow")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.MarkNoShow(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to mark session as no-show")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Session marked as no-show by user " + user)

	response.WithMessage(w, http.StatusOK, "Session marked as no-show")
}
