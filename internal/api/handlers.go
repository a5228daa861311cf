package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"healthgenie.io/assistant/internal/core"
	"healthgenie.io/assistant/internal/logging"
	"healthgenie.io/assistant/internal/session"
	"healthgenie.io/assistant/internal/store"
)

// uploadField is the multipart field carrying the document.
const uploadField = "file"

type APIHandler struct {
	healthService *core.HealthService
}

func NewAPIHandler(hs *core.HealthService) *APIHandler {
	return &APIHandler{healthService: hs}
}

// sessionStore returns the store of the session bound to the request.
func sessionStore(r *http.Request) store.Store {
	return session.FromContext(r.Context()).Store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps service errors to status codes. Validation messages are
// shown to the user as is; anything unexpected is logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case isTooLarge(err):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
	case core.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case isOutOfRange(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		logging.FromContext(r.Context()).Error("Request failed", zap.String("action", action), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to " + action})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Index must be an integer"})
		return 0, false
	}
	return index, true
}

func (h *APIHandler) SidebarHandler(w http.ResponseWriter, r *http.Request) {
	sidebar, err := h.healthService.Sidebar(r.Context(), sessionStore(r))
	if err != nil {
		writeError(w, r, "load reminders", err)
		return
	}
	writeJSON(w, http.StatusOK, sidebar)
}

func (h *APIHandler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := h.healthService.ChatHistory(sessionStore(r))
	if err != nil {
		writeError(w, r, "load chat history", err)
		return
	}
	if history == nil {
		history = []store.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, history)
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := h.healthService.SendChat(r.Context(), sessionStore(r), req.Content)
	if err != nil {
		writeError(w, r, "post message", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// SummarizeDocumentHandler accepts a multipart upload in the "file" field.
func (h *APIHandler) SummarizeDocumentHandler(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := readUpload(w, r, h.healthService.MaxUploadBytes())
	if err != nil {
		writeError(w, r, "read upload", err)
		return
	}
	defer cleanup()

	summary, err := h.healthService.SummarizeUpload(r.Context(), up)
	if err != nil {
		writeError(w, r, "summarize document", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// readUpload pulls the document out of a multipart request. The body is
// capped a little above the upload limit so oversized files are still
// reported with their declared size.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) (core.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*limit + 1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return core.Upload{}, nil, &core.FileTooLargeError{Size: maxErr.Limit, Limit: limit}
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return core.Upload{}, nil, core.ErrUnsupportedUpload
		}
		logging.FromContext(r.Context()).Debug("Unreadable multipart body", zap.Error(err))
		return core.Upload{}, nil, core.ErrMalformedUpload
	}

	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		return core.Upload{}, nil, core.ErrUnsupportedUpload
	}
	if err != nil {
		return core.Upload{}, nil, core.ErrMalformedUpload
	}
	cleanup := func() {
		file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	return core.Upload{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Content:  file,
	}, cleanup, nil
}

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.healthService.Profile(sessionStore(r))
	if err != nil {
		writeError(w, r, "load profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var profile store.UserProfile
	if !decodeBody(w, r, &profile) {
		return
	}
	if err := h.healthService.UpdateProfile(sessionStore(r), profile); err != nil {
		writeError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type TextResponse struct {
	Text string `json:"text"`
}

func (h *APIHandler) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	insights, err := h.healthService.GenerateInsights(r.Context(), sessionStore(r))
	if err != nil {
		writeError(w, r, "generate insights", err)
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{Text: insights})
}

func (h *APIHandler) SymptomTrendHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := h.healthService.SymptomDailyCounts(sessionStore(r))
	if err != nil {
		writeError(w, r, "load symptom trend", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *APIHandler) ListMedicationsHandler(w http.ResponseWriter, r *http.Request) {
	meds, err := h.healthService.Medications(sessionStore(r))
	if err != nil {
		writeError(w, r, "list medications", err)
		return
	}
	if meds == nil {
		meds = []store.Medication{}
	}
	writeJSON(w, http.StatusOK, meds)
}

func (h *APIHandler) AddMedicationHandler(w http.ResponseWriter, r *http.Request) {
	var form core.MedicationForm
	if !decodeBody(w, r, &form) {
		return
	}
	med, err := h.healthService.AddMedication(sessionStore(r), form)
	if err != nil {
		writeError(w, r, "add medication", err)
		return
	}
	writeJSON(w, http.StatusCreated, med)
}

func (h *APIHandler) RemoveMedicationHandler(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	if err := h.healthService.RemoveMedication(sessionStore(r), index); err != nil {
		writeError(w, r, "remove medication", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	views, err := h.healthService.AppointmentsView(sessionStore(r))
	if err != nil {
		writeError(w, r, "list appointments", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *APIHandler) ScheduleAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var form core.AppointmentForm
	if !decodeBody(w, r, &form) {
		return
	}
	apt, err := h.healthService.ScheduleAppointment(sessionStore(r), form)
	if err != nil {
		writeError(w, r, "schedule appointment", err)
		return
	}
	writeJSON(w, http.StatusCreated, apt)
}

func (h *APIHandler) RemoveAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	if err := h.healthService.RemoveAppointment(sessionStore(r), index); err != nil {
		writeError(w, r, "remove appointment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListSymptomsHandler(w http.ResponseWriter, r *http.Request) {
	symptoms, err := h.healthService.SymptomsNewestFirst(sessionStore(r))
	if err != nil {
		writeError(w, r, "list symptoms", err)
		return
	}
	if symptoms == nil {
		symptoms = []store.SymptomEntry{}
	}
	writeJSON(w, http.StatusOK, symptoms)
}

type LogSymptomRequest struct {
	Description string `json:"description"`
}

func (h *APIHandler) LogSymptomHandler(w http.ResponseWriter, r *http.Request) {
	var req LogSymptomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.healthService.LogSymptom(sessionStore(r), req.Description)
	if err != nil {
		writeError(w, r, "log symptom", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *APIHandler) SymptomAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.healthService.AnalyzeSymptomPatterns(r.Context(), sessionStore(r))
	if err != nil {
		writeError(w, r, "analyze symptoms", err)
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{Text: analysis})
}
