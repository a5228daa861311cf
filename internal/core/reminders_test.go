package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthgenie.io/assistant/internal/store"
)

var newYear = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestUpcomingRemindersMergesAndSorts(t *testing.T) {
	meds := []store.Medication{{Name: "Ibuprofen", Dosage: "200mg", NextDose: "2025-01-10 08:00"}}
	apts := []store.Appointment{{Title: "Checkup", Date: "2025-01-05 09:00", Description: "Annual"}}

	reminders, skipped := UpcomingReminders(meds, apts, newYear)

	assert.Zero(t, skipped)
	require.Len(t, reminders, 2)
	assert.Equal(t, Reminder{Type: ReminderAppointment, Title: "Checkup", Time: "2025-01-05 09:00", Description: "Annual"}, reminders[0])
	assert.Equal(t, Reminder{Type: ReminderMedication, Title: "Ibuprofen", Time: "2025-01-10 08:00", Description: "Take 200mg"}, reminders[1])
}

func TestUpcomingRemindersKeepsFive(t *testing.T) {
	var meds []store.Medication
	for day := 9; day >= 2; day-- {
		meds = append(meds, store.Medication{Name: fmt.Sprintf("med-%d", day), NextDose: fmt.Sprintf("2025-01-0%d 08:00", day)})
	}

	reminders, _ := UpcomingReminders(meds, nil, newYear)

	require.Len(t, reminders, 5)
	assert.Equal(t, "med-2", reminders[0].Title)
	assert.Equal(t, "med-6", reminders[4].Title)
}

func TestUpcomingRemindersSkipsUnparsableAndPast(t *testing.T) {
	meds := []store.Medication{
		{Name: "garbled", NextDose: "whenever suits"},
		{Name: "blank", NextDose: ""},
		{Name: "yesterday", NextDose: "2024-12-31 23:00"},
		{Name: "earlier today", NextDose: "2025-01-01 06:00"},
	}
	apts := []store.Appointment{{Title: "bad", Date: "not a date"}}

	reminders, skipped := UpcomingReminders(meds, apts, newYear)

	assert.Equal(t, 2, skipped)
	require.Len(t, reminders, 1)
	assert.Equal(t, "earlier today", reminders[0].Title)
}

func TestUpcomingRemindersEmpty(t *testing.T) {
	reminders, skipped := UpcomingReminders(nil, nil, newYear)
	assert.Empty(t, reminders)
	assert.Zero(t, skipped)
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		message string
		want    bool
	}{
		{"I have a headache", true},
		{"What's the weather today?", false},
		{"I feel great today", true},
		{"My back HURTS", true},
		{"Feeling DIZZY", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsSymptomReport(tt.message))
		})
	}
}

func TestKeywordClassifierCustomKeywords(t *testing.T) {
	c := NewKeywordClassifier("Fever")
	assert.True(t, c.IsSymptomReport("running a fever"))
	assert.False(t, c.IsSymptomReport("I have a headache"))
}
