// Package store holds the per-session health records: chat history, symptom
// log, medications, appointments and the user profile.
package store

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned by the Remove methods when the index does
// not name an existing entry. Nothing is removed in that case.
var ErrIndexOutOfRange = errors.New("index out of range")

// Store is the state of one session. Every collection keeps insertion order;
// getters return copies the caller may modify freely.
type Store interface {
	ChatHistory() ([]ChatMessage, error)
	AppendChatMessage(msg ChatMessage) error

	Symptoms() ([]SymptomEntry, error)
	AppendSymptom(entry SymptomEntry) error

	Medications() ([]Medication, error)
	AddMedication(med Medication) error
	RemoveMedication(index int) error

	Appointments() ([]Appointment, error)
	AddAppointment(apt Appointment) error
	RemoveAppointment(index int) error

	Profile() (UserProfile, error)
	UpdateProfile(profile UserProfile) error
}

// Backend creates and discards session stores.
type Backend interface {
	Open(sessionID string) (Store, error)
	Drop(sessionID string) error
	Close() error
}

func indexError(collection string, index, length int) error {
	return fmt.Errorf("remove %s %d of %d: %w", collection, index, length, ErrIndexOutOfRange)
}
