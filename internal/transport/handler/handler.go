package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/config"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
	use_case "github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/use-case"
)

type UseCase interface {
	Convert(ctx context.Context, data []byte, params use_case.ConvertParams) (entities.Outcome, error)
}

// StatusChecker reports reachability of the redis backing store shared
// by the rate limiter and the cache index.
type StatusChecker interface {
	Status(ctx context.Context) error
}

type Handler struct {
	useCase UseCase
	store   StatusChecker
	cfg     *config.Config
	log     *zap.Logger
}

func New(useCase UseCase, store StatusChecker, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		useCase: useCase,
		store:   store,
		cfg:     cfg,
		log:     log,
	}
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	// Body ceiling leaves room for multipart framing on top of the
	// largest accepted file.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxFileSizeBytes()+(1<<20))

	if err := r.ParseMultipartForm(h.cfg.Upload.MaxMultipartMemoryMB << 20); err != nil {
		writeMultipartError(w, err)
		return
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		if strings.Contains(err.Error(), "no such file") {
			writeJSONError(w, "No file provided", http.StatusBadRequest)
		} else {
			writeJSONError(w, "an error occurred while uploading the file: "+err.Error(), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	if fh.Filename == "" {
		writeJSONError(w, "No file selected", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, "failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	params := use_case.ConvertParams{
		Filename:     fh.Filename,
		OutputFormat: r.URL.Query().Get("output_format"),
		ClientID:     clientIP(r),
		DetectedMIME: mimetype.Detect(data).String(),
	}

	out, err := h.useCase.Convert(r.Context(), data, params)
	if err != nil {
		h.writeConversionError(w, err)
		return
	}

	target, _ := entities.ParseFormat(params.OutputFormat)
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="converted.`+target.String()+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		h.log.Warn("failed to write response body", zap.Error(err))
	}
}

func (h *Handler) writeConversionError(w http.ResponseWriter, err error) {
	var convErr *entities.ConversionError
	if !errors.As(err, &convErr) {
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if convErr.Kind == entities.KindRateLimited && convErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(convErr.RetryAfter))
	}
	writeJSONError(w, convErr.Message, convErr.HTTPStatus())
}

// Health reports liveness and backing-store reachability. The engine is
// deliberately not probed: a wedged engine must not fail the liveness
// check that keeps the process scheduled.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	redisStatus := "connected"
	if err := h.store.Status(r.Context()); err != nil {
		redisStatus = "disconnected"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:    "healthy",
		Redis:     redisStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// clientIP prefers the first forwarded address, falling back to the
// socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}
