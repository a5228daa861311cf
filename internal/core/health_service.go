package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"healthgenie.io/assistant/internal/document"
	"healthgenie.io/assistant/internal/logging"
	"healthgenie.io/assistant/internal/metrics"
	"healthgenie.io/assistant/internal/store"
	"healthgenie.io/assistant/internal/utils"
)

const (
	DefaultMaxUploadBytes  = 1024 * 1024
	minSymptomsForAnalysis = 4

	symptomSourceChat = "chat"
	symptomSourceForm = "form"
)

// HealthService implements the five views (chat, insights, medications,
// appointments, symptom log) on top of a session's store.
type HealthService struct {
	gateway        *Gateway
	classifier     SymptomClassifier
	metrics        *metrics.Metrics
	maxUploadBytes int64
	now            func() time.Time
}

type HealthServiceOption func(*HealthService)

func WithClassifier(c SymptomClassifier) HealthServiceOption {
	return func(s *HealthService) { s.classifier = c }
}

func WithClock(now func() time.Time) HealthServiceOption {
	return func(s *HealthService) { s.now = now }
}

func WithMaxUploadBytes(n int64) HealthServiceOption {
	return func(s *HealthService) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) HealthServiceOption {
	return func(s *HealthService) { s.metrics = m }
}

func NewHealthService(gateway *Gateway, opts ...HealthServiceOption) *HealthService {
	s := &HealthService{
		gateway:        gateway,
		classifier:     NewKeywordClassifier(),
		maxUploadBytes: DefaultMaxUploadBytes,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HealthService) MaxUploadBytes() int64 { return s.maxUploadBytes }

// Chat

type ChatReply struct {
	Reply         string `json:"reply"`
	SymptomLogged bool   `json:"symptom_logged"`
}

// SendChat records the user's message, logs it as a symptom when it reads
// like one, and records the assistant's answer.
func (s *HealthService) SendChat(ctx context.Context, st store.Store, text string) (*ChatReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	if err := st.AppendChatMessage(store.ChatMessage{Role: store.RoleUser, Content: text}); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	chatContext := GeneralChatContext
	symptomLogged := false
	if s.classifier.IsSymptomReport(text) {
		if err := s.logSymptom(st, text, symptomSourceChat); err != nil {
			return nil, err
		}
		chatContext = SymptomLogContext
		symptomLogged = true
	}

	reply := s.gateway.Generate(ctx, text, chatContext)
	if err := st.AppendChatMessage(store.ChatMessage{Role: store.RoleAssistant, Content: reply}); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}
	return &ChatReply{Reply: reply, SymptomLogged: symptomLogged}, nil
}

func (s *HealthService) ChatHistory(st store.Store) ([]store.ChatMessage, error) {
	return st.ChatHistory()
}

// Documents

type Upload struct {
	Filename string
	MIMEType string
	Size     int64
	Content  io.Reader
}

type DocumentSummary struct {
	Filename   string `json:"filename"`
	Characters int    `json:"characters"`
	Summary    string `json:"summary"`
}

// SummarizeUpload extracts the upload's text and asks for a summary. Files
// over the size limit are rejected before anything is read. The session's
// records are not touched.
func (s *HealthService) SummarizeUpload(ctx context.Context, up Upload) (*DocumentSummary, error) {
	log := logging.FromContext(ctx)
	if up.Size > s.maxUploadBytes {
		s.metrics.ObserveUpload(metrics.UploadTooLarge)
		log.Info("Upload rejected", zap.String("filename", up.Filename), zap.Int64("size", up.Size))
		return nil, &FileTooLargeError{Size: up.Size, Limit: s.maxUploadBytes}
	}

	data, err := io.ReadAll(io.LimitReader(up.Content, s.maxUploadBytes+1))
	if err != nil {
		s.metrics.ObserveUpload(metrics.UploadFailed)
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		s.metrics.ObserveUpload(metrics.UploadTooLarge)
		return nil, &FileTooLargeError{Size: int64(len(data)), Limit: s.maxUploadBytes}
	}
	if !document.IsSupported(data, up.MIMEType) {
		s.metrics.ObserveUpload(metrics.UploadFailed)
		return nil, ErrUnsupportedUpload
	}

	text := document.ExtractText(data, up.MIMEType)
	if strings.TrimSpace(text) == "" {
		s.metrics.ObserveUpload(metrics.UploadFailed)
		return nil, ErrNoDocumentText
	}
	s.metrics.ObserveUpload(metrics.UploadAccepted)

	return &DocumentSummary{
		Filename:   up.Filename,
		Characters: len([]rune(text)),
		Summary:    s.gateway.SummarizeDocument(ctx, text),
	}, nil
}

// Insights

func (s *HealthService) Profile(st store.Store) (store.UserProfile, error) {
	return st.Profile()
}

func (s *HealthService) UpdateProfile(st store.Store, profile store.UserProfile) error {
	return st.UpdateProfile(profile)
}

func (s *HealthService) GenerateInsights(ctx context.Context, st store.Store) (string, error) {
	profile, err := st.Profile()
	if err != nil {
		return "", err
	}
	symptoms, err := st.Symptoms()
	if err != nil {
		return "", err
	}
	return s.gateway.HealthInsights(ctx, profile, symptoms), nil
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SymptomDailyCounts counts logged symptoms per calendar date, oldest first.
func (s *HealthService) SymptomDailyCounts(st store.Store) ([]DailyCount, error) {
	symptoms, err := st.Symptoms()
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, sym := range symptoms {
		counts[sym.Date]++
	}
	out := make([]DailyCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, DailyCount{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Medications

type MedicationForm struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	NextDoseDate string `json:"next_dose_date"` // YYYY-MM-DD, defaults to today
	NextDoseTime string `json:"next_dose_time"` // HH:MM, defaults to now
	Notes        string `json:"notes"`
}

func (s *HealthService) AddMedication(st store.Store, form MedicationForm) (*store.Medication, error) {
	if strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.Dosage) == "" {
		return nil, ErrMissingMedication
	}
	frequency := form.Frequency
	if frequency == "" {
		frequency = store.FrequencyOnceDaily
	}
	if !slices.Contains(store.Frequencies, frequency) {
		return nil, invalid("Unknown frequency %q.", frequency)
	}

	now := s.now()
	date := form.NextDoseDate
	if date == "" {
		date = now.Format(store.DateLayout)
	}
	clock := form.NextDoseTime
	if clock == "" {
		clock = now.Format("15:04")
	}
	nextDose, err := combineDateTime(date, clock, now.Location())
	if err != nil {
		return nil, err
	}

	med := store.Medication{
		Name:      strings.TrimSpace(form.Name),
		Dosage:    strings.TrimSpace(form.Dosage),
		Frequency: frequency,
		NextDose:  nextDose,
		Notes:     form.Notes,
		AddedDate: now.Format(store.DateLayout),
	}
	if err := st.AddMedication(med); err != nil {
		return nil, err
	}
	return &med, nil
}

func (s *HealthService) Medications(st store.Store) ([]store.Medication, error) {
	return st.Medications()
}

func (s *HealthService) RemoveMedication(st store.Store, index int) error {
	return st.RemoveMedication(index)
}

// Appointments

type AppointmentForm struct {
	Title       string `json:"title"`
	Date        string `json:"date"` // YYYY-MM-DD
	Time        string `json:"time"` // HH:MM, defaults to now
	Doctor      string `json:"doctor"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (s *HealthService) ScheduleAppointment(st store.Store, form AppointmentForm) (*store.Appointment, error) {
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Date) == "" {
		return nil, ErrMissingAppointment
	}
	aptType := form.Type
	if aptType == "" {
		aptType = store.AppointmentCheckUp
	}
	if !slices.Contains(store.AppointmentTypes, aptType) {
		return nil, invalid("Unknown appointment type %q.", aptType)
	}

	now := s.now()
	clock := form.Time
	if clock == "" {
		clock = now.Format("15:04")
	}
	date, err := combineDateTime(form.Date, clock, now.Location())
	if err != nil {
		return nil, err
	}

	apt := store.Appointment{
		Title:       strings.TrimSpace(form.Title),
		Date:        date,
		Doctor:      form.Doctor,
		Type:        aptType,
		Description: form.Description,
		CreatedDate: now.Format(store.DateLayout),
	}
	if err := st.AddAppointment(apt); err != nil {
		return nil, err
	}
	return &apt, nil
}

// Appointment statuses shown in the appointment list.
const (
	StatusUpcoming    = "Upcoming"
	StatusPast        = "Past"
	StatusUnknownDate = "Unknown date"
)

// AppointmentView is one row of the appointment list. Index is the
// appointment's position in the store, which is what RemoveAppointment takes.
type AppointmentView struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	store.Appointment
}

// AppointmentsView lists appointments sorted by their date string.
func (s *HealthService) AppointmentsView(st store.Store) ([]AppointmentView, error) {
	apts, err := st.Appointments()
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]AppointmentView, len(apts))
	for i, apt := range apts {
		status := StatusUnknownDate
		if parsed := utils.ParseDate(apt.Date, now.Location()); parsed.Valid {
			status = StatusPast
			if parsed.Time.After(now) {
				status = StatusUpcoming
			}
		}
		views[i] = AppointmentView{Index: i, Status: status, Appointment: apt}
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Date < views[j].Date })
	return views, nil
}

func (s *HealthService) RemoveAppointment(st store.Store, index int) error {
	return st.RemoveAppointment(index)
}

// Symptom log

func (s *HealthService) LogSymptom(st store.Store, description string) (*store.SymptomEntry, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrMissingSymptom
	}
	entry := store.NewSymptomEntry(description, s.now())
	if err := st.AppendSymptom(entry); err != nil {
		return nil, fmt.Errorf("failed to log symptom: %w", err)
	}
	s.metrics.SymptomLogged(symptomSourceForm)
	return &entry, nil
}

func (s *HealthService) logSymptom(st store.Store, description, source string) error {
	if err := st.AppendSymptom(store.NewSymptomEntry(description, s.now())); err != nil {
		return fmt.Errorf("failed to log symptom: %w", err)
	}
	s.metrics.SymptomLogged(source)
	return nil
}

// SymptomsNewestFirst returns the log most recent entry first.
func (s *HealthService) SymptomsNewestFirst(st store.Store) ([]store.SymptomEntry, error) {
	symptoms, err := st.Symptoms()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(symptoms, func(i, j int) bool {
		return symptoms[i].Timestamp.After(symptoms[j].Timestamp)
	})
	return symptoms, nil
}

// AnalyzeSymptomPatterns needs more than three logged symptoms.
func (s *HealthService) AnalyzeSymptomPatterns(ctx context.Context, st store.Store) (string, error) {
	symptoms, err := st.Symptoms()
	if err != nil {
		return "", err
	}
	if len(symptoms) < minSymptomsForAnalysis {
		return "", ErrNotEnoughSymptoms
	}
	return s.gateway.AnalyzeSymptomPatterns(ctx, symptoms), nil
}

// Sidebar

type QuickStats struct {
	Symptoms     int `json:"symptoms"`
	Medications  int `json:"medications"`
	Appointments int `json:"appointments"`
}

type Sidebar struct {
	Reminders        []Reminder `json:"reminders"`
	SkippedReminders int        `json:"skipped_reminders"`
	Stats            QuickStats `json:"stats"`
}

// Sidebar builds the reminder panel and quick stats shown on every view.
func (s *HealthService) Sidebar(ctx context.Context, st store.Store) (*Sidebar, error) {
	meds, err := st.Medications()
	if err != nil {
		return nil, err
	}
	apts, err := st.Appointments()
	if err != nil {
		return nil, err
	}
	symptoms, err := st.Symptoms()
	if err != nil {
		return nil, err
	}

	reminders, skipped := UpcomingReminders(meds, apts, s.now())
	if skipped > 0 {
		logging.FromContext(ctx).Debug("Skipped reminders with unparsable dates", zap.Int("skipped", skipped))
	}
	s.metrics.SetReminderSkips(skipped)
	if reminders == nil {
		reminders = []Reminder{}
	}

	return &Sidebar{
		Reminders:        reminders,
		SkippedReminders: skipped,
		Stats: QuickStats{
			Symptoms:     len(symptoms),
			Medications:  len(meds),
			Appointments: len(apts),
		},
	}, nil
}

// combineDateTime joins form date and time inputs into YYYY-MM-DD HH:MM.
func combineDateTime(date, clock string, loc *time.Location) (string, error) {
	t, err := time.ParseInLocation(store.DateLayout+" 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		var parseErr *time.ParseError
		if errors.As(err, &parseErr) {
			return "", invalid("Please enter the date as YYYY-MM-DD and the time as HH:MM.")
		}
		return "", err
	}
	return t.Format(store.DateTimeLayout), nil
}
