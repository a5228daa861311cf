package core

import (
	"sort"
	"time"

	"healthgenie.io/assistant/internal/store"
	"healthgenie.io/assistant/internal/utils"
)

const (
	ReminderMedication  = "Medication"
	ReminderAppointment = "Appointment"

	maxReminders = 5
)

type Reminder struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Time        string `json:"time"`
	Description string `json:"description"`
}

// UpcomingReminders merges medication doses and appointments dated on or
// after now's calendar day, sorted by their literal time string, and keeps
// the first five. Entries whose date cannot be parsed are left out and
// counted in skipped; entries with no date at all are left out uncounted.
//
// The sort compares the stored strings, not parsed times. For the
// YYYY-MM-DD HH:MM strings the forms produce that is chronological; mixed
// formats sort lexically.
func UpcomingReminders(medications []store.Medication, appointments []store.Appointment, now time.Time) (reminders []Reminder, skipped int) {
	loc := now.Location()

	for _, med := range medications {
		if med.NextDose == "" {
			continue
		}
		parsed := utils.ParseDate(med.NextDose, loc)
		if !parsed.Valid {
			skipped++
			continue
		}
		if utils.SameDayOrAfter(parsed.Time, now) {
			reminders = append(reminders, Reminder{
				Type:        ReminderMedication,
				Title:       med.Name,
				Time:        med.NextDose,
				Description: "Take " + med.Dosage,
			})
		}
	}

	for _, apt := range appointments {
		if apt.Date == "" {
			continue
		}
		parsed := utils.ParseDate(apt.Date, loc)
		if !parsed.Valid {
			skipped++
			continue
		}
		if utils.SameDayOrAfter(parsed.Time, now) {
			reminders = append(reminders, Reminder{
				Type:        ReminderAppointment,
				Title:       apt.Title,
				Time:        apt.Date,
				Description: apt.Description,
			})
		}
	}

	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].Time < reminders[j].Time
	})
	if len(reminders) > maxReminders {
		reminders = reminders[:maxReminders]
	}
	return reminders, skipped
}
