package handlers

import (
	stderrors "errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/turtacn/trademark-screening/internal/application/submission"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/internal/interfaces/http/middleware"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

const (
	defaultHeartbeat = 15 * time.Second
	multipartMemory  = 8 << 20
)

// StreamObserver tracks open live-result streams.
type StreamObserver interface {
	StreamOpened()
	StreamClosed()
}

// SubmitForm is the multipart form of POST /api/v1/trademarks.
type SubmitForm struct {
	Name        string `validate:"notblank"`
	ProductName string
}

// HistoryEmpty is returned by /mine when the requester has no reports.
type HistoryEmpty struct {
	Message string `json:"message"`
}

// SubmissionHandler serves the asynchronous submission endpoints.
type SubmissionHandler struct {
	svc       submission.Service
	streams   StreamObserver
	validator *requestValidator
	logger    logging.Logger
	maxBody   int64
	heartbeat time.Duration
}

// NewSubmissionHandler creates a SubmissionHandler. streams may be nil.
func NewSubmissionHandler(svc submission.Service, streams StreamObserver, maxBody int64, logger logging.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		svc:       svc,
		streams:   streams,
		validator: newRequestValidator(),
		logger:    logger,
		maxBody:   maxBody,
		heartbeat: defaultHeartbeat,
	}
}

// Submit handles POST /api/v1/trademarks.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		if r.ContentLength > h.maxBody {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", h.maxBody))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !stderrors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "invalid multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	form := SubmitForm{Name: r.FormValue("name"), ProductName: r.FormValue("product_name")}
	if err := h.validator.Struct(form); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, errors.ErrCodeCandidateInvalid, err.Error())
		return
	}

	in := &submission.SubmitInput{
		Name:        form.Name,
		ProductName: form.ProductName,
		RequesterID: middleware.RequesterFromContext(r.Context()),
	}
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		in.Image = imageFrom(file, header)
	case stderrors.Is(err, http.ErrMissingFile), stderrors.Is(err, http.ErrNotMultipart):
	default:
		middleware.WriteError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "invalid image upload")
		return
	}

	accepted, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		h.logger.Warn("submission rejected",
			logging.String("uid", in.RequesterID),
			logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted)
}

func imageFrom(file multipart.File, header *multipart.FileHeader) *submission.Image {
	return &submission.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

// Mine handles GET /api/v1/trademarks/mine.
func (h *SubmissionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.History(r.Context(), middleware.RequesterFromContext(r.Context()))
	if err != nil {
		h.logger.Error("history lookup failed", logging.Err(err))
		writeAppError(w, err)
		return
	}
	if len(reports) == 0 {
		writeJSON(w, http.StatusOK, HistoryEmpty{Message: submission.NoHistoryMessage})
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// Results handles GET /api/v1/trademarks/results as a server-sent event
// stream of the requester's finished reports.
func (h *SubmissionHandler) Results(w http.ResponseWriter, r *http.Request) {
	uid := middleware.RequesterFromContext(r.Context())
	rc := http.NewResponseController(w)

	ch, err := h.svc.Subscribe(r.Context(), uid)
	if err != nil {
		h.logger.Error("live results subscription failed", logging.String("uid", uid), logging.Err(err))
		writeAppError(w, err)
		return
	}

	// The server write timeout would otherwise end the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Warn("response does not support streaming", logging.Err(err))
		return
	}

	if h.streams != nil {
		h.streams.StreamOpened()
		defer h.streams.StreamClosed()
	}
	h.logger.Debug("live results stream opened", logging.String("uid", uid))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("live results stream closed", logging.String("uid", uid))
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
