package api

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"healthgenie.io/assistant/internal/core"
	"healthgenie.io/assistant/internal/logging"
	"healthgenie.io/assistant/internal/session"
	"healthgenie.io/assistant/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views of the page, selected with ?view=.
const (
	ViewChat         = "chat"
	ViewInsights     = "insights"
	ViewMedications  = "medications"
	ViewAppointments = "appointments"
	ViewSymptoms     = "symptoms"
)

type navItem struct {
	View  string
	Label string
}

var navigation = []navItem{
	{ViewChat, "💬 Chat"},
	{ViewInsights, "📊 Health Insights"},
	{ViewMedications, "💊 Medications"},
	{ViewAppointments, "📅 Appointments"},
	{ViewSymptoms, "📋 Symptom Log"},
}

// pageData feeds templates/page.html. Only the fields of the current view
// are filled in.
type pageData struct {
	View       string
	Navigation []navItem
	Sidebar    *core.Sidebar
	Notice     string
	Error      string
	Today      string
	MaxUpload  string

	Chat    []store.ChatMessage
	Summary *core.DocumentSummary

	Profile  store.UserProfile
	Insights string
	Trend    []core.DailyCount

	Medications []store.Medication
	Frequencies []string

	Appointments     []core.AppointmentView
	AppointmentTypes []string

	Symptoms   []store.SymptomEntry
	CanAnalyze bool
	Analysis   string
}

type PageHandler struct {
	healthService *core.HealthService
	tmpl          *template.Template
	now           func() time.Time
}

func NewPageHandler(hs *core.HealthService) (*PageHandler, error) {
	tmpl, err := template.New("page.html").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{healthService: hs, tmpl: tmpl, now: time.Now}, nil
}

func normalizeView(v string) string {
	for _, item := range navigation {
		if item.View == v {
			return v
		}
	}
	return ViewChat
}

// PageHandler renders the page for the view named in the query string.
func (p *PageHandler) PageHandler(w http.ResponseWriter, r *http.Request) {
	data := &pageData{
		View:   normalizeView(r.URL.Query().Get("view")),
		Notice: session.FromContext(r.Context()).TakeFlash(),
	}
	p.render(w, r, http.StatusOK, data)
}

// render fills in the sidebar and the current view's data, then executes
// the page template.
func (p *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	ctx := r.Context()
	st := sessionStore(r)
	data.Navigation = navigation
	data.Today = p.now().Format(store.DateLayout)
	data.MaxUpload = core.HumanSize(p.healthService.MaxUploadBytes())

	if err := p.loadView(st, data); err != nil {
		logging.FromContext(ctx).Error("Failed to load view", zap.String("view", data.View), zap.Error(err))
		http.Error(w, "Failed to load page", http.StatusInternalServerError)
		return
	}

	sidebar, err := p.healthService.Sidebar(ctx, st)
	if err != nil {
		logging.FromContext(ctx).Error("Failed to load sidebar", zap.Error(err))
		http.Error(w, "Failed to load page", http.StatusInternalServerError)
		return
	}
	data.Sidebar = sidebar

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.tmpl.Execute(w, data); err != nil {
		logging.FromContext(ctx).Error("Failed to render page", zap.Error(err))
	}
}

func (p *PageHandler) loadView(st store.Store, data *pageData) error {
	var err error
	switch data.View {
	case ViewChat:
		data.Chat, err = p.healthService.ChatHistory(st)
	case ViewInsights:
		if data.Profile, err = p.healthService.Profile(st); err != nil {
			return err
		}
		data.Trend, err = p.healthService.SymptomDailyCounts(st)
	case ViewMedications:
		data.Frequencies = store.Frequencies
		data.Medications, err = p.healthService.Medications(st)
	case ViewAppointments:
		data.AppointmentTypes = store.AppointmentTypes
		data.Appointments, err = p.healthService.AppointmentsView(st)
	case ViewSymptoms:
		if data.Symptoms, err = p.healthService.SymptomsNewestFirst(st); err != nil {
			return err
		}
		data.CanAnalyze = len(data.Symptoms) > 3
	}
	return err
}

func isTooLarge(err error) bool {
	var tooLarge *core.FileTooLargeError
	return errors.As(err, &tooLarge)
}

func isOutOfRange(err error) bool {
	return errors.Is(err, store.ErrIndexOutOfRange)
}

// redirect finishes a successful form post. The notice travels in the
// session and is shown once by the page the browser lands on.
func redirect(w http.ResponseWriter, r *http.Request, view, notice string) {
	if notice != "" {
		session.FromContext(r.Context()).SetFlash(notice)
	}
	q := url.Values{"view": {view}}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

// fail re-renders view with the error. Validation errors are shown as is;
// other errors are logged and replaced with a generic message.
func (p *PageHandler) fail(w http.ResponseWriter, r *http.Request, view string, err error) {
	data := &pageData{View: view}
	status := http.StatusBadRequest
	switch {
	case core.IsValidation(err):
		data.Error = err.Error()
	case isTooLarge(err):
		data.Error = err.Error()
		status = http.StatusRequestEntityTooLarge
	case isOutOfRange(err):
		data.Error = "That entry no longer exists."
		status = http.StatusNotFound
	default:
		logging.FromContext(r.Context()).Error("Form submission failed", zap.String("view", view), zap.Error(err))
		data.Error = "Something went wrong. Please try again."
		status = http.StatusInternalServerError
	}
	p.render(w, r, status, data)
}

func (p *PageHandler) ChatFormHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := p.healthService.SendChat(r.Context(), sessionStore(r), r.FormValue("message")); err != nil {
		p.fail(w, r, ViewChat, err)
		return
	}
	redirect(w, r, ViewChat, "")
}

// UploadFormHandler shows the summary in place; it is not stored.
func (p *PageHandler) UploadFormHandler(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := readUpload(w, r, p.healthService.MaxUploadBytes())
	if err != nil {
		p.fail(w, r, ViewChat, err)
		return
	}
	defer cleanup()

	summary, err := p.healthService.SummarizeUpload(r.Context(), up)
	if err != nil {
		p.fail(w, r, ViewChat, err)
		return
	}
	p.render(w, r, http.StatusOK, &pageData{
		View:    ViewChat,
		Notice:  "Document processed successfully!",
		Summary: summary,
	})
}

func (p *PageHandler) ProfileFormHandler(w http.ResponseWriter, r *http.Request) {
	profile := store.UserProfile{
		Age:        r.FormValue("age"),
		Conditions: r.FormValue("conditions"),
		Allergies:  r.FormValue("allergies"),
		Lifestyle:  r.FormValue("lifestyle"),
	}
	if err := p.healthService.UpdateProfile(sessionStore(r), profile); err != nil {
		p.fail(w, r, ViewInsights, err)
		return
	}
	redirect(w, r, ViewInsights, "Profile updated!")
}

func (p *PageHandler) InsightsFormHandler(w http.ResponseWriter, r *http.Request) {
	insights, err := p.healthService.GenerateInsights(r.Context(), sessionStore(r))
	if err != nil {
		p.fail(w, r, ViewInsights, err)
		return
	}
	p.render(w, r, http.StatusOK, &pageData{View: ViewInsights, Insights: insights})
}

func (p *PageHandler) AddMedicationFormHandler(w http.ResponseWriter, r *http.Request) {
	med, err := p.healthService.AddMedication(sessionStore(r), core.MedicationForm{
		Name:         r.FormValue("name"),
		Dosage:       r.FormValue("dosage"),
		Frequency:    r.FormValue("frequency"),
		NextDoseDate: r.FormValue("next_dose_date"),
		NextDoseTime: r.FormValue("next_dose_time"),
		Notes:        r.FormValue("notes"),
	})
	if err != nil {
		p.fail(w, r, ViewMedications, err)
		return
	}
	redirect(w, r, ViewMedications, fmt.Sprintf("Added %s to your medication list!", med.Name))
}

func (p *PageHandler) RemoveMedicationFormHandler(w http.ResponseWriter, r *http.Request) {
	st := sessionStore(r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Index must be an integer", http.StatusBadRequest)
		return
	}
	meds, err := p.healthService.Medications(st)
	if err != nil {
		p.fail(w, r, ViewMedications, err)
		return
	}
	if err := p.healthService.RemoveMedication(st, index); err != nil {
		p.fail(w, r, ViewMedications, err)
		return
	}
	redirect(w, r, ViewMedications, fmt.Sprintf("Removed %s.", meds[index].Name))
}

func (p *PageHandler) ScheduleAppointmentFormHandler(w http.ResponseWriter, r *http.Request) {
	apt, err := p.healthService.ScheduleAppointment(sessionStore(r), core.AppointmentForm{
		Title:       r.FormValue("title"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Doctor:      r.FormValue("doctor"),
		Type:        r.FormValue("type"),
		Description: r.FormValue("description"),
	})
	if err != nil {
		p.fail(w, r, ViewAppointments, err)
		return
	}
	redirect(w, r, ViewAppointments, "Scheduled appointment: "+apt.Title)
}

func (p *PageHandler) RemoveAppointmentFormHandler(w http.ResponseWriter, r *http.Request) {
	st := sessionStore(r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Index must be an integer", http.StatusBadRequest)
		return
	}
	apts, err := st.Appointments()
	if err != nil {
		p.fail(w, r, ViewAppointments, err)
		return
	}
	if err := p.healthService.RemoveAppointment(st, index); err != nil {
		p.fail(w, r, ViewAppointments, err)
		return
	}
	redirect(w, r, ViewAppointments, fmt.Sprintf("Removed %s.", apts[index].Title))
}

func (p *PageHandler) LogSymptomFormHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := p.healthService.LogSymptom(sessionStore(r), r.FormValue("description")); err != nil {
		p.fail(w, r, ViewSymptoms, err)
		return
	}
	redirect(w, r, ViewSymptoms, "Symptom logged successfully!")
}

func (p *PageHandler) AnalyzeSymptomsFormHandler(w http.ResponseWriter, r *http.Request) {
	analysis, err := p.healthService.AnalyzeSymptomPatterns(r.Context(), sessionStore(r))
	if err != nil {
		p.fail(w, r, ViewSymptoms, err)
		return
	}
	p.render(w, r, http.StatusOK, &pageData{View: ViewSymptoms, Analysis: analysis})
}
