package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/turtacn/trademark-screening/internal/application/screening"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/middleware"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// Response strings of the synchronous endpoint.
const (
	ScreenCompletedMessage = "처리가 완료되었습니다."
	NameMissingMessage     = "표장 이름이 제공되지 않았습니다."
	ScreenFailedPrefix     = "상표 처리 중 오류가 발생했습니다: "
)

// ReportRecorder counts finished reports by trigger.
type ReportRecorder interface {
	RecordReport(trigger string)
}

// ScreenRequest is the body of POST /process_trademark.
type ScreenRequest struct {
	Name        string `json:"name" validate:"notblank"`
	ProductName string `json:"product_name"`
}

// ScreenResponse is the success body of POST /process_trademark.
type ScreenResponse struct {
	Message string            `json:"message"`
	Results trademark.Results `json:"results"`
}

// ScreeningHandler runs the engine synchronously for one candidate.
type ScreeningHandler struct {
	engine    screening.Service
	metrics   ReportRecorder
	validator *requestValidator
	logger    logging.Logger
	maxBody   int64
}

// NewScreeningHandler creates a ScreeningHandler. metrics may be nil.
func NewScreeningHandler(engine screening.Service, metrics ReportRecorder, maxBody int64, logger logging.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		engine:    engine,
		metrics:   metrics,
		validator: newRequestValidator(),
		logger:    logger,
		maxBody:   maxBody,
	}
}

// Screen handles POST /process_trademark.
func (h *ScreeningHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	body := io.Reader(r.Body)
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(body).Decode(&req); err != nil && err != io.EOF {
		middleware.WriteError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		if v, ok := err.(fieldViolation); ok && v.Field == "name" && (v.Tag == "notblank" || v.Tag == "required") {
			middleware.WriteError(w, http.StatusBadRequest, errors.ErrCodeCandidateInvalid, NameMissingMessage)
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, errors.ErrCodeValidation, err.Error())
		return
	}

	candidate, err := trademark.NewCandidate(req.Name, req.ProductName, middleware.RequesterFromContext(r.Context()))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, errors.ErrCodeCandidateInvalid, NameMissingMessage)
		return
	}

	rep, err := h.engine.Screen(r.Context(), candidate)
	if err != nil {
		appErr := errors.As(err, errors.ErrCodeReportFailed)
		h.logger.Error("synchronous screening failed",
			logging.String("name", req.Name),
			logging.String("code", appErr.Code.String()),
			logging.Err(err))
		middleware.WriteError(w, http.StatusInternalServerError, appErr.Code, ScreenFailedPrefix+appErr.Message)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordReport(prometheus.TriggerSync)
	}
	writeJSON(w, http.StatusOK, ScreenResponse{Message: ScreenCompletedMessage, Results: rep.Results})
}
