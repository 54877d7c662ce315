// Package registry maps measurement files to durable measurement ids and
// lightweight metadata. Registration is idempotent: the same file always
// yields the same id and never duplicates its record.
package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autopsy/internal/artifact"
	"autopsy/internal/fingerprint"
	"autopsy/internal/logging"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a measurement id is unknown.
var ErrNotFound = errors.New("measurement not found")

// MeasurementRef is a stable handle to a registered measurement file.
type MeasurementRef struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Label string `json:"label,omitempty"`
}

// MeasurementMeta is the full registry record for one measurement.
// Everything except Label is immutable after creation.
type MeasurementMeta struct {
	MeasurementID   string `json:"measurement_id"`
	FileFingerprint string `json:"file_fingerprint"`
	Path            string `json:"path"`
	Label           string `json:"label,omitempty"`
	CreatedAt       string `json:"created_at"`
	Format          string `json:"format"`
	FormatMeta
}

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// Registry is the measurement registry backed by SQLite under the cache root.
type Registry struct {
	db         *sql.DB
	headBytes  int
	extractors map[string]Extractor
}

// Open opens or creates the registry database under store and runs migrations.
func Open(store *artifact.Store) (*Registry, error) {
	path := store.DBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	r := &Registry{
		db:         db,
		headBytes:  fingerprint.DefaultHeadBytes,
		extractors: defaultExtractors(),
	}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Registry) migrate() error {
	if _, err := r.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create registry schema: %w", err)
	}
	var v int
	err := r.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersionV1 {
		return fmt.Errorf("unknown registry schema version %d", v)
	}
	return nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// SetHeadBytes overrides how much of each file head goes into fingerprints.
// Primarily for tests with tiny files.
func (r *Registry) SetHeadBytes(n int) { r.headBytes = n }

// SetExtractor plugs a metadata extractor for a file extension (e.g. ".mf4").
func (r *Registry) SetExtractor(ext string, e Extractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Register fingerprints the file at path and creates its registry record if
// none exists for that fingerprint. Re-registering the same file is a no-op;
// a changed label updates only the label column. Registration always
// succeeds for a readable file: metadata extraction failures are recorded
// on the record, not propagated.
func (r *Registry) Register(path, label string) (MeasurementRef, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return MeasurementRef{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	sig, err := fingerprint.Signature(abs, r.headBytes)
	if err != nil {
		return MeasurementRef{}, err
	}
	id := fingerprint.MeasurementID(sig)
	logger := logging.New("registry")

	var storedLabel sql.NullString
	err = r.db.QueryRow("SELECT label FROM measurements WHERE id = ?", id).Scan(&storedLabel)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		fm := r.extract(abs)
		format := r.formatTag(abs)
		metaJSON, merr := json.Marshal(fm)
		if merr != nil {
			return MeasurementRef{}, fmt.Errorf("encode format meta: %w", merr)
		}
		// INSERT OR IGNORE keeps concurrent registration of the same file
		// idempotent without cross-process locking.
		_, err = r.db.Exec(
			`INSERT OR IGNORE INTO measurements(id, fingerprint, path, label, created_at, format, meta_json)
			 VALUES(?, ?, ?, ?, ?, ?, ?)`,
			id, sig, abs, nullIfEmpty(label), nowUTC(), format, string(metaJSON),
		)
		if err != nil {
			return MeasurementRef{}, fmt.Errorf("insert measurement: %w", err)
		}
		logger.Info("registered measurement", "id", id, "path", abs, "format", format)
	case err != nil:
		return MeasurementRef{}, fmt.Errorf("lookup measurement: %w", err)
	default:
		if label != "" && nullStr(storedLabel) != label {
			if _, err := r.db.Exec("UPDATE measurements SET label = ? WHERE id = ?", label, id); err != nil {
				return MeasurementRef{}, fmt.Errorf("update label: %w", err)
			}
			logger.Debug("updated measurement label", "id", id, "label", label)
		}
	}

	ref := MeasurementRef{ID: id, Path: abs, Label: label}
	if label == "" {
		ref.Label = nullStr(storedLabel)
	}
	return ref, nil
}

// Metadata returns the full record for a measurement id.
func (r *Registry) Metadata(id string) (*MeasurementMeta, error) {
	var m MeasurementMeta
	var label sql.NullString
	var metaJSON string
	err := r.db.QueryRow(
		`SELECT id, fingerprint, path, label, created_at, format, meta_json
		 FROM measurements WHERE id = ?`, id,
	).Scan(&m.MeasurementID, &m.FileFingerprint, &m.Path, &label, &m.CreatedAt, &m.Format, &metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read measurement: %w", err)
	}
	m.Label = nullStr(label)
	if err := json.Unmarshal([]byte(metaJSON), &m.FormatMeta); err != nil {
		return nil, fmt.Errorf("decode format meta: %w", err)
	}
	return &m, nil
}

// List returns all registered measurements ordered by creation time.
func (r *Registry) List() ([]*MeasurementMeta, error) {
	rows, err := r.db.Query(
		`SELECT id, fingerprint, path, label, created_at, format, meta_json
		 FROM measurements ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	var out []*MeasurementMeta
	for rows.Next() {
		var m MeasurementMeta
		var label sql.NullString
		var metaJSON string
		if err := rows.Scan(&m.MeasurementID, &m.FileFingerprint, &m.Path, &label, &m.CreatedAt, &m.Format, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		m.Label = nullStr(label)
		if err := json.Unmarshal([]byte(metaJSON), &m.FormatMeta); err != nil {
			return nil, fmt.Errorf("decode format meta: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
