package refdb

// schema creates the reference tables. report is stored as 0/1.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS taxa (
		id INTEGER PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		rank TEXT,
		parent_id INTEGER REFERENCES taxa(id),
		ncbi_id INTEGER,
		distance_threshold REAL,
		report INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS taxa_parent_idx ON taxa(parent_id)`,
	`CREATE TABLE IF NOT EXISTS genomes (
		id INTEGER PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		description TEXT,
		taxon_id INTEGER REFERENCES taxa(id)
	)`,
	`CREATE INDEX IF NOT EXISTS genomes_taxon_idx ON genomes(taxon_id)`,
}
