package store

import (
	"slices"
	"sync"
)

// MemoryStore keeps a session's records in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	chatHistory  []ChatMessage
	symptoms     []SymptomEntry
	medications  []Medication
	appointments []Appointment
	profile      UserProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ChatHistory() ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chatHistory), nil
}

func (s *MemoryStore) AppendChatMessage(msg ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatHistory = append(s.chatHistory, msg)
	return nil
}

func (s *MemoryStore) Symptoms() ([]SymptomEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.symptoms), nil
}

func (s *MemoryStore) AppendSymptom(entry SymptomEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symptoms = append(s.symptoms, entry)
	return nil
}

func (s *MemoryStore) Medications() ([]Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.medications), nil
}

func (s *MemoryStore) AddMedication(med Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.medications = append(s.medications, med)
	return nil
}

func (s *MemoryStore) RemoveMedication(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.medications) {
		return indexError("medication", index, len(s.medications))
	}
	s.medications = slices.Delete(s.medications, index, index+1)
	return nil
}

func (s *MemoryStore) Appointments() ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.appointments), nil
}

func (s *MemoryStore) AddAppointment(apt Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = append(s.appointments, apt)
	return nil
}

func (s *MemoryStore) RemoveAppointment(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.appointments) {
		return indexError("appointment", index, len(s.appointments))
	}
	s.appointments = slices.Delete(s.appointments, index, index+1)
	return nil
}

func (s *MemoryStore) Profile() (UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, nil
}

func (s *MemoryStore) UpdateProfile(profile UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	return nil
}

// MemoryBackend hands out a fresh MemoryStore per session. Dropping a session
// simply forgets it; the store is garbage once the session manager lets go.
type MemoryBackend struct{}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (MemoryBackend) Open(string) (Store, error) { return NewMemoryStore(), nil }
func (MemoryBackend) Drop(string) error          { return nil }
func (MemoryBackend) Close() error               { return nil }
