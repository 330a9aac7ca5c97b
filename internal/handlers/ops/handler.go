package ops

import (
	"net/http"

	"tutorhub/infras/otel"
	sessionService "tutorhub/internal/domains/session/service"
	settlementService "tutorhub/internal/domains/settlement/service"
	"tutorhub/shared/constant"
	gDto "tutorhub/shared/dto"
	"tutorhub/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

// Handler exposes the periodic sweeps as operator endpoints so they can be
// triggered on demand between scheduled runs.
type Handler struct {
	session    sessionService.Session
	settlement settlementService.Settlement
	otel       otel.Otel
}

func New(session sessionService.Session, settlement settlementService.Settlement, otel otel.Otel) Handler {
	return Handler{
		session:    session,
		settlement: settlement,
		otel:       otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/ops", func(routerGroup chi.Router) {
		routerGroup.Post("/meeting-backfill", handler.RunMeetingBackfill)
		routerGroup.Post("/charge-settlement", handler.RunChargeSettlement)
		routerGroup.Get("/settlements/failed", handler.GetFailedSettlements)
	})
}

// RunMeetingBackfill sweeps sessions that are still missing a meeting link.
// @Summary Run the meeting backfill sweep
// @Description Retry meeting creation for future scheduled sessions without a join link.
// @Tags Ops
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.BackfillResult] "Backfill result"
// @Failure 500 {object} response.Error
// @Router /v1/ops/meeting-backfill [post]
// @Security BearerAuth
func (handler *Handler) RunMeetingBackfill(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RunMeetingBackfill")
	defer scope.End()

	res, err := handler.session.RunMeetingBackfill(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to run meeting backfill")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Meeting backfill run finished")

	response.WithJSON(w, http.StatusOK, res)
}

// RunChargeSettlement sweeps due sessions and captures their charges.
// @Summary Run the charge settlement sweep
// @Description Capture charges for sessions past their due time. Each charge is captured at most once.
// @Tags Ops
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.SettlementResult] "Settlement result"
// @Failure 500 {object} response.Error
// @Router /v1/ops/charge-settlement [post]
// @Security BearerAuth
func (handler *Handler) RunChargeSettlement(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RunChargeSettlement")
	defer scope.End()

	res, err := handler.settlement.RunChargeSettlement(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to run charge settlement")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Charge settlement run finished")

	response.WithJSON(w, http.StatusOK, res)
}

// GetFailedSettlements lists sessions whose charge was permanently declined.
// @Summary Get failed settlements
// @Description List sessions with a permanently declined charge, for operator follow-up.
// @Tags Ops
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[sessionDto.GetSessionsResponse] "Failed settlements"
// @Failure 500 {object} response.Error
// @Router /v1/ops/settlements/failed [get]
// @Security BearerAuth
func (handler *Handler) GetFailedSettlements(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetFailedSettlements")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.settlement.GetFailed(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get failed settlements")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Failed settlements retrieved successfully")

	response.WithJSON(w, http.StatusOK, res)
}
