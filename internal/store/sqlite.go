package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteBackend keeps every session's records in one SQLite database, rows
// keyed by session id. The default DSN is a shared in-memory database, so
// nothing outlives the process.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(dataSourceName string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A shared-cache memory database lives only while a connection is open,
	// and a single connection avoids SQLITE_LOCKED between writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	backend := &SQLiteBackend{db: db}
	if err = backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return backend, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chat_messages (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS symptoms (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        timestamp DATETIME NOT NULL,
        description TEXT NOT NULL,
        date TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS medications (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        name TEXT NOT NULL,
        dosage TEXT NOT NULL,
        frequency TEXT NOT NULL,
        next_dose TEXT NOT NULL,
        notes TEXT NOT NULL,
        added_date TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS appointments (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        title TEXT NOT NULL,
        date TEXT NOT NULL,
        doctor TEXT NOT NULL,
        type TEXT NOT NULL,
        description TEXT NOT NULL,
        created_date TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS profiles (
        session_id TEXT PRIMARY KEY,
        age TEXT NOT NULL,
        conditions TEXT NOT NULL,
        allergies TEXT NOT NULL,
        lifestyle TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_id, id);
    CREATE INDEX IF NOT EXISTS idx_symptoms_session ON symptoms (session_id, id);
    CREATE INDEX IF NOT EXISTS idx_medications_session ON medications (session_id, id);
    CREATE INDEX IF NOT EXISTS idx_appointments_session ON appointments (session_id, id);
    `
	_, err := b.db.Exec(schema)
	return err
}

// Open returns the view of sessionID's rows.
func (b *SQLiteBackend) Open(sessionID string) (Store, error) {
	return &SQLiteStore{db: b.db, sessionID: sessionID}, nil
}

// Drop deletes every row owned by sessionID.
func (b *SQLiteBackend) Drop(sessionID string) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin drop: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"chat_messages", "symptoms", "medications", "appointments", "profiles"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to delete %s for session: %w", table, err)
		}
	}
	return tx.Commit()
}

// SQLiteStore is one session's slice of a SQLiteBackend. Insertion order is
// the AUTOINCREMENT id order.
type SQLiteStore struct {
	db        *sql.DB
	sessionID string
}

// Chat history methods
func (s *SQLiteStore) ChatHistory() ([]ChatMessage, error) {
	rows, err := s.db.Query("SELECT role, content FROM chat_messages WHERE session_id = ? ORDER BY id ASC", s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) AppendChatMessage(msg ChatMessage) error {
	_, err := s.db.Exec("INSERT INTO chat_messages (session_id, role, content) VALUES (?, ?, ?)", s.sessionID, msg.Role, msg.Content)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

// Symptom methods
func (s *SQLiteStore) Symptoms() ([]SymptomEntry, error) {
	rows, err := s.db.Query("SELECT timestamp, description, date FROM symptoms WHERE session_id = ? ORDER BY id ASC", s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptoms: %w", err)
	}
	defer rows.Close()

	var entries []SymptomEntry
	for rows.Next() {
		var entry SymptomEntry
		var ts time.Time
		if err := rows.Scan(&ts, &entry.Description, &entry.Date); err != nil {
			return nil, fmt.Errorf("failed to scan symptom row: %w", err)
		}
		entry.Timestamp = ts.Local()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) AppendSymptom(entry SymptomEntry) error {
	_, err := s.db.Exec("INSERT INTO symptoms (session_id, timestamp, description, date) VALUES (?, ?, ?, ?)",
		s.sessionID, entry.Timestamp, entry.Description, entry.Date)
	if err != nil {
		return fmt.Errorf("failed to insert symptom: %w", err)
	}
	return nil
}

// Medication methods
func (s *SQLiteStore) Medications() ([]Medication, error) {
	rows, err := s.db.Query("SELECT name, dosage, frequency, next_dose, notes, added_date FROM medications WHERE session_id = ? ORDER BY id ASC", s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var meds []Medication
	for rows.Next() {
		var med Medication
		if err := rows.Scan(&med.Name, &med.Dosage, &med.Frequency, &med.NextDose, &med.Notes, &med.AddedDate); err != nil {
			return nil, fmt.Errorf("failed to scan medication row: %w", err)
		}
		meds = append(meds, med)
	}
	return meds, rows.Err()
}

func (s *SQLiteStore) AddMedication(med Medication) error {
	_, err := s.db.Exec("INSERT INTO medications (session_id, name, dosage, frequency, next_dose, notes, added_date) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.sessionID, med.Name, med.Dosage, med.Frequency, med.NextDose, med.Notes, med.AddedDate)
	if err != nil {
		return fmt.Errorf("failed to insert medication: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveMedication(index int) error {
	return s.removeAt("medications", "medication", index)
}

// Appointment methods
func (s *SQLiteStore) Appointments() ([]Appointment, error) {
	rows, err := s.db.Query("SELECT title, date, doctor, type, description, created_date FROM appointments WHERE session_id = ? ORDER BY id ASC", s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var apts []Appointment
	for rows.Next() {
		var apt Appointment
		if err := rows.Scan(&apt.Title, &apt.Date, &apt.Doctor, &apt.Type, &apt.Description, &apt.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan appointment row: %w", err)
		}
		apts = append(apts, apt)
	}
	return apts, rows.Err()
}

func (s *SQLiteStore) AddAppointment(apt Appointment) error {
	_, err := s.db.Exec("INSERT INTO appointments (session_id, title, date, doctor, type, description, created_date) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.sessionID, apt.Title, apt.Date, apt.Doctor, apt.Type, apt.Description, apt.CreatedDate)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveAppointment(index int) error {
	return s.removeAt("appointments", "appointment", index)
}

// removeAt deletes the index-th row (in insertion order) of table.
func (s *SQLiteStore) removeAt(table, collection string, index int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin %s removal: %w", collection, err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE session_id = ?", s.sessionID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count %s rows: %w", collection, err)
	}
	if index < 0 || index >= count {
		return indexError(collection, index, count)
	}

	var id int64
	err = tx.QueryRow("SELECT id FROM "+table+" WHERE session_id = ? ORDER BY id ASC LIMIT 1 OFFSET ?", s.sessionID, index).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to locate %s %d: %w", collection, index, err)
	}
	if _, err := tx.Exec("DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", collection, index, err)
	}
	return tx.Commit()
}

// Profile methods
func (s *SQLiteStore) Profile() (UserProfile, error) {
	var p UserProfile
	err := s.db.QueryRow("SELECT age, conditions, allergies, lifestyle FROM profiles WHERE session_id = ?", s.sessionID).
		Scan(&p.Age, &p.Conditions, &p.Allergies, &p.Lifestyle)
	if err != nil {
		if err == sql.ErrNoRows {
			return UserProfile{}, nil // Not set yet
		}
		return UserProfile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) UpdateProfile(profile UserProfile) error {
	_, err := s.db.Exec(`
        INSERT INTO profiles (session_id, age, conditions, allergies, lifestyle) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (session_id) DO UPDATE SET
            age = excluded.age,
            conditions = excluded.conditions,
            allergies = excluded.allergies,
            lifestyle = excluded.lifestyle`,
		s.sessionID, profile.Age, profile.Conditions, profile.Allergies, profile.Lifestyle)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
