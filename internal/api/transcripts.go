package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snarg/verba/internal/audio"
	"github.com/snarg/verba/internal/database"
	"github.com/snarg/verba/internal/pipeline"
)

const maxUploadBytes = 200 << 20 // 200MB of WAV ≈ 1.5h of 16kHz mono

// Uploader runs uploaded audio through the pipeline and persists the result.
type Uploader interface {
	ProcessUpload(ctx context.Context, filename string, data []byte, source string) (int64, *pipeline.Result, error)
}

// TranscriptSource reads stored transcripts.
type TranscriptSource interface {
	GetTranscript(ctx context.Context, id int64) (*database.TranscriptAPI, error)
	ListTranscripts(ctx context.Context, f database.TranscriptFilter) ([]TranscriptListItem, int, error)
}

// TranscriptListItem aliases the database row shape for list responses.
type TranscriptListItem = database.TranscriptAPI

// TranscriptsHandler serves transcript creation and retrieval.
type TranscriptsHandler struct {
	uploader Uploader
	source   TranscriptSource
	log      zerolog.Logger
}

func NewTranscriptsHandler(uploader Uploader, source TranscriptSource, log zerolog.Logger) *TranscriptsHandler {
	return &TranscriptsHandler{
		uploader: uploader,
		source:   source,
		log:      log.With().Str("handler", "transcripts").Logger(),
	}
}

// Routes registers the transcript endpoints.
func (h *TranscriptsHandler) Routes(r chi.Router) {
	r.Post("/transcribe", h.Create)
	r.Get("/transcripts", h.List)
	r.Get("/transcripts/{id}", h.Get)
}

// TranscribeResponse is the body returned from POST /transcribe. The full
// pipeline result is embedded so callers see per-chunk outcomes directly.
type TranscribeResponse struct {
	ID int64 `json:"id"`
	*pipeline.Result
}

// Create handles POST /api/v1/transcribe. It accepts a multipart form with
// the WAV file in the "audio" field ("file" also works). Chunk-level failures
// still produce 201: the transcript exists, with failures recorded per chunk.
func (h *TranscriptsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing audio file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}

	id, res, err := h.uploader.ProcessUpload(r.Context(), header.Filename, data, "upload")
	if err != nil {
		var le *audio.LoadError
		if errors.As(err, &le) {
			WriteErrorDetail(w, http.StatusBadRequest, "unreadable audio", le.Error())
			return
		}
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("upload processing failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, TranscribeResponse{ID: id, Result: res})
}

// TranscriptListResponse is the paginated body for GET /transcripts.
type TranscriptListResponse struct {
	Transcripts []TranscriptListItem `json:"transcripts"`
	Total       int                  `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// List handles GET /api/v1/transcripts with optional ?q= full-text search.
func (h *TranscriptsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	search, _ := QueryString(r, "q")
	items, total, err := h.source.ListTranscripts(r.Context(), database.TranscriptFilter{
		Search: search,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("list transcripts failed")
		WriteError(w, http.StatusInternalServerError, "failed to list transcripts")
		return
	}
	if items == nil {
		items = []TranscriptListItem{}
	}

	WriteJSON(w, http.StatusOK, TranscriptListResponse{
		Transcripts: items,
		Total:       total,
		Limit:       p.Limit,
		Offset:      p.Offset,
	})
}

// Get handles GET /api/v1/transcripts/{id}, including chunk detail.
func (h *TranscriptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid transcript id")
		return
	}

	t, err := h.source.GetTranscript(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "transcript not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("get transcript failed")
		WriteError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}

	WriteJSON(w, http.StatusOK, t)
}
