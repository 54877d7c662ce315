package registry

// schemaVersionV1 is the current measurement registry schema.
const schemaVersionV1 = 1

// schemaV1 holds immutable identity columns plus a JSON blob for the
// best-effort format-specific metadata. Only label is ever updated.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS measurements (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	path        TEXT NOT NULL,
	label       TEXT,
	created_at  TEXT NOT NULL,
	format      TEXT NOT NULL,
	meta_json   TEXT NOT NULL DEFAULT '{}'
);
`
