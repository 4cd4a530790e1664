package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/toto04/homescraper/internal/model"
)

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB

	// embeddings require the pgvector extension; when it is missing the
	// repository still works, similarity features are just disabled
	vectorEnabled bool
}

// NewPostgresRepository creates a new PostgreSQL repository and ensures
// the schema exists
func NewPostgresRepository(dsn string, maxConn, maxIdleConn, embeddingDims int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &PostgresRepository{db: db}
	if err := r.ensureSchema(embeddingDims); err != nil {
		return nil, err
	}

	return r, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EmbeddingsEnabled reports whether the pgvector extension is available
func (r *PostgresRepository) EmbeddingsEnabled() bool {
	return r.vectorEnabled
}

func (r *PostgresRepository) ensureSchema(embeddingDims int) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS raw_listings (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			url         TEXT NOT NULL DEFAULT '',
			price       INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			features    JSONB NOT NULL DEFAULT '{}',
			others      JSONB NOT NULL DEFAULT '[]',
			costs       JSONB NOT NULL DEFAULT '{}',
			images      JSONB NOT NULL DEFAULT '[]',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS processed_listings (
			id                    TEXT PRIMARY KEY,
			tipologia             TEXT NOT NULL,
			indirizzo             TEXT NOT NULL DEFAULT '',
			spese_condominiali    DOUBLE PRECISION,
			utenze_incluse        JSONB NOT NULL DEFAULT '{}',
			aria_condizionata     BOOLEAN NOT NULL DEFAULT FALSE,
			riscaldamento         TEXT NOT NULL,
			costo_mensile_stimato DOUBLE PRECISION NOT NULL DEFAULT 0,
			livello_arredamento   TEXT NOT NULL,
			durata_contratto      TEXT,
			cauzione              DOUBLE PRECISION,
			vincoli               JSONB NOT NULL DEFAULT '[]',
			punteggio             DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS geodata (
			id          TEXT PRIMARY KEY,
			address     TEXT NOT NULL DEFAULT '',
			geocode     JSONB,
			delta_duomo DOUBLE PRECISION,
			metro       JSONB,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_actions (
			id         TEXT PRIMARY KEY,
			is_saved   BOOLEAN NOT NULL DEFAULT FALSE,
			is_hidden  BOOLEAN NOT NULL DEFAULT FALSE,
			notes      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range schema {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if _, err := r.db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		log.Printf("Warning: pgvector extension unavailable, similarity search disabled: %v", err)
		return nil
	}
	if _, err := r.db.Exec(fmt.Sprintf(
		`ALTER TABLE raw_listings ADD COLUMN IF NOT EXISTS embedding vector(%d)`, embeddingDims,
	)); err != nil {
		log.Printf("Warning: failed to add embedding column, similarity search disabled: %v", err)
		return nil
	}
	r.vectorEnabled = true

	return nil
}

// --- raw listings ---

type rawListingRow struct {
	ID          string           `db:"id"`
	Title       string           `db:"title"`
	URL         string           `db:"url"`
	Price       int              `db:"price"`
	Description string           `db:"description"`
	Features    model.StringMap  `db:"features"`
	Others      model.StringList `db:"others"`
	Costs       model.StringMap  `db:"costs"`
	Images      model.StringList `db:"images"`
}

func (row rawListingRow) toModel() model.RawListing {
	return model.RawListing{
		ID:          row.ID,
		Title:       row.Title,
		URL:         row.URL,
		Price:       row.Price,
		Description: row.Description,
		Features:    row.Features,
		Others:      row.Others,
		Costs:       row.Costs,
		Images:      row.Images,
	}
}

const rawListingColumns = `id, title, url, price, description, features, others, costs, images`

// UpsertRawListings inserts or replaces raw listings in one transaction
func (r *PostgresRepository) UpsertRawListings(ctx context.Context, listings []model.RawListing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO raw_listings (id, title, url, price, description, features, others, costs, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			others = EXCLUDED.others,
			costs = EXCLUDED.costs,
			images = EXCLUDED.images,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, l := range listings {
		if _, err := stmt.ExecContext(ctx,
			l.ID, l.Title, l.URL, l.Price, l.Description,
			l.Features, l.Others, l.Costs, l.Images,
		); err != nil {
			return fmt.Errorf("failed to upsert raw listing %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// GetRawListings returns all raw listings ordered by id
func (r *PostgresRepository) GetRawListings(ctx context.Context) ([]model.RawListing, error) {
	var rows []rawListingRow
	query := fmt.Sprintf(`SELECT %s FROM raw_listings ORDER BY id`, rawListingColumns)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch raw listings: %w", err)
	}

	listings := make([]model.RawListing, len(rows))
	for i, row := range rows {
		listings[i] = row.toModel()
	}
	return listings, nil
}

// GetRawListingByID returns one raw listing, or nil when absent
func (r *PostgresRepository) GetRawListingByID(ctx context.Context, id string) (*model.RawListing, error) {
	var row rawListingRow
	query := fmt.Sprintf(`SELECT %s FROM raw_listings WHERE id = $1`, rawListingColumns)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get raw listing: %w", err)
	}
	listing := row.toModel()
	return &listing, nil
}

// --- processed listings ---

type processedListingRow struct {
	ID                  string              `db:"id"`
	Tipologia           string              `db:"tipologia"`
	Indirizzo           string              `db:"indirizzo"`
	SpeseCondominiali   *float64            `db:"spese_condominiali"`
	UtenzeIncluse       model.UtenzeIncluse `db:"utenze_incluse"`
	AriaCondizionata    bool                `db:"aria_condizionata"`
	Riscaldamento       string              `db:"riscaldamento"`
	CostoMensileStimato float64             `db:"costo_mensile_stimato"`
	LivelloArredamento  string              `db:"livello_arredamento"`
	DurataContratto     *string             `db:"durata_contratto"`
	Cauzione            *float64            `db:"cauzione"`
	Vincoli             model.StringList    `db:"vincoli"`
	Punteggio           float64             `db:"punteggio"`
}

func (row processedListingRow) toModel() model.ProcessedListing {
	return model.ProcessedListing{
		ID: row.ID,
		ExtractedFields: model.ExtractedFields{
			Tipologia:           row.Tipologia,
			Indirizzo:           row.Indirizzo,
			SpeseCondominiali:   row.SpeseCondominiali,
			UtenzeIncluse:       row.UtenzeIncluse,
			AriaCondizionata:    row.AriaCondizionata,
			Riscaldamento:       row.Riscaldamento,
			CostoMensileStimato: row.CostoMensileStimato,
			LivelloArredamento:  row.LivelloArredamento,
			DurataContratto:     row.DurataContratto,
			Cauzione:            row.Cauzione,
			Vincoli:             row.Vincoli,
			Punteggio:           row.Punteggio,
		},
	}
}

const processedListingColumns = `id, tipologia, indirizzo, spese_condominiali, utenze_incluse,
	aria_condizionata, riscaldamento, costo_mensile_stimato, livello_arredamento,
	durata_contratto, cauzione, vincoli, punteggio`

// UpsertProcessedListings inserts or replaces processed listings
func (r *PostgresRepository) UpsertProcessedListings(ctx context.Context, listings []model.ProcessedListing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO processed_listings (
			id, tipologia, indirizzo, spese_condominiali, utenze_incluse,
			aria_condizionata, riscaldamento, costo_mensile_stimato,
			livello_arredamento, durata_contratto, cauzione, vincoli, punteggio
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			tipologia = EXCLUDED.tipologia,
			indirizzo = EXCLUDED.indirizzo,
			spese_condominiali = EXCLUDED.spese_condominiali,
			utenze_incluse = EXCLUDED.utenze_incluse,
			aria_condizionata = EXCLUDED.aria_condizionata,
			riscaldamento = EXCLUDED.riscaldamento,
			costo_mensile_stimato = EXCLUDED.costo_mensile_stimato,
			livello_arredamento = EXCLUDED.livello_arredamento,
			durata_contratto = EXCLUDED.durata_contratto,
			cauzione = EXCLUDED.cauzione,
			vincoli = EXCLUDED.vincoli,
			punteggio = EXCLUDED.punteggio,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, l := range listings {
		if _, err := stmt.ExecContext(ctx,
			l.ID, l.Tipologia, l.Indirizzo, l.SpeseCondominiali, l.UtenzeIncluse,
			l.AriaCondizionata, l.Riscaldamento, l.CostoMensileStimato,
			l.LivelloArredamento, l.DurataContratto, l.Cauzione, l.Vincoli, l.Punteggio,
		); err != nil {
			return fmt.Errorf("failed to upsert processed listing %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// GetProcessedListings returns all processed listings ordered by id
func (r *PostgresRepository) GetProcessedListings(ctx context.Context) ([]model.ProcessedListing, error) {
	var rows []processedListingRow
	query := fmt.Sprintf(`SELECT %s FROM processed_listings ORDER BY id`, processedListingColumns)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch processed listings: %w", err)
	}

	listings := make([]model.ProcessedListing, len(rows))
	for i, row := range rows {
		listings[i] = row.toModel()
	}
	return listings, nil
}

// GetProcessedListingByID returns one processed listing, or nil when absent
func (r *PostgresRepository) GetProcessedListingByID(ctx context.Context, id string) (*model.ProcessedListing, error) {
	var row processedListingRow
	query := fmt.Sprintf(`SELECT %s FROM processed_listings WHERE id = $1`, processedListingColumns)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get processed listing: %w", err)
	}
	listing := row.toModel()
	return &listing, nil
}

// --- geodata ---

type geoDataRow struct {
	ID         string             `db:"id"`
	Address    string             `db:"address"`
	Geocode    types.NullJSONText `db:"geocode"`
	DeltaDuomo *float64           `db:"delta_duomo"`
	Metro      types.NullJSONText `db:"metro"`
}

func (row geoDataRow) toModel() (model.GeoData, error) {
	gd := model.GeoData{
		ID:         row.ID,
		Address:    row.Address,
		DeltaDuomo: row.DeltaDuomo,
	}
	if row.Geocode.Valid {
		var g model.GeocodeResult
		if err := json.Unmarshal(row.Geocode.JSONText, &g); err != nil {
			return gd, fmt.Errorf("invalid geocode for %s: %w", row.ID, err)
		}
		gd.Geocode = &g
	}
	if row.Metro.Valid {
		var m model.Metro
		if err := json.Unmarshal(row.Metro.JSONText, &m); err != nil {
			return gd, fmt.Errorf("invalid metro for %s: %w", row.ID, err)
		}
		gd.Metro = &m
	}
	return gd, nil
}

func marshalNullable(v interface{}, isNil bool) (interface{}, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}

// UpsertGeoData inserts or replaces geodata records
func (r *PostgresRepository) UpsertGeoData(ctx context.Context, records []model.GeoData) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO geodata (id, address, geocode, delta_duomo, metro)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			address = EXCLUDED.address,
			geocode = EXCLUDED.geocode,
			delta_duomo = EXCLUDED.delta_duomo,
			metro = EXCLUDED.metro,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, gd := range records {
		geocode, err := marshalNullable(gd.Geocode, gd.Geocode == nil)
		if err != nil {
			return fmt.Errorf("failed to marshal geocode for %s: %w", gd.ID, err)
		}
		metro, err := marshalNullable(gd.Metro, gd.Metro == nil)
		if err != nil {
			return fmt.Errorf("failed to marshal metro for %s: %w", gd.ID, err)
		}

		if _, err := stmt.ExecContext(ctx, gd.ID, gd.Address, geocode, gd.DeltaDuomo, metro); err != nil {
			return fmt.Errorf("failed to upsert geodata %s: %w", gd.ID, err)
		}
	}

	return tx.Commit()
}

// GetGeoData returns all geodata records ordered by id
func (r *PostgresRepository) GetGeoData(ctx context.Context) ([]model.GeoData, error) {
	var rows []geoDataRow
	query := `SELECT id, address, geocode, delta_duomo, metro FROM geodata ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch geodata: %w", err)
	}

	records := make([]model.GeoData, len(rows))
	for i, row := range rows {
		gd, err := row.toModel()
		if err != nil {
			return nil, err
		}
		records[i] = gd
	}
	return records, nil
}

// GetGeoDataByID returns one geodata record, or nil when absent
func (r *PostgresRepository) GetGeoDataByID(ctx context.Context, id string) (*model.GeoData, error) {
	var row geoDataRow
	query := `SELECT id, address, geocode, delta_duomo, metro FROM geodata WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get geodata: %w", err)
	}
	gd, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &gd, nil
}

// --- user actions ---

// GetUserActions returns all user action records
func (r *PostgresRepository) GetUserActions(ctx context.Context) ([]model.UserActions, error) {
	var actions []model.UserActions
	query := `SELECT id, is_saved, is_hidden, notes, created_at, updated_at FROM user_actions ORDER BY id`
	if err := r.db.SelectContext(ctx, &actions, query); err != nil {
		return nil, fmt.Errorf("failed to fetch user actions: %w", err)
	}
	return actions, nil
}

// GetUserActionsByID returns the actions for one listing, or nil when absent
func (r *PostgresRepository) GetUserActionsByID(ctx context.Context, id string) (*model.UserActions, error) {
	var actions model.UserActions
	query := `SELECT id, is_saved, is_hidden, notes, created_at, updated_at FROM user_actions WHERE id = $1`
	if err := r.db.GetContext(ctx, &actions, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user actions: %w", err)
	}
	return &actions, nil
}

// UpsertUserAction merges a partial update into the stored record: nil
// fields keep whatever is already there, missing rows start from the
// zero state
func (r *PostgresRepository) UpsertUserAction(ctx context.Context, update model.ActionUpdate) (*model.UserActions, error) {
	var actions model.UserActions
	query := `
		INSERT INTO user_actions (id, is_saved, is_hidden, notes)
		VALUES ($1, COALESCE($2, FALSE), COALESCE($3, FALSE), COALESCE($4, ''))
		ON CONFLICT (id) DO UPDATE SET
			is_saved = COALESCE($2, user_actions.is_saved),
			is_hidden = COALESCE($3, user_actions.is_hidden),
			notes = COALESCE($4, user_actions.notes),
			updated_at = NOW()
		RETURNING id, is_saved, is_hidden, notes, created_at, updated_at
	`
	if err := r.db.GetContext(ctx, &actions, query, update.ID, update.IsSaved, update.IsHidden, update.Notes); err != nil {
		return nil, fmt.Errorf("failed to upsert user action: %w", err)
	}
	return &actions, nil
}

// --- embeddings ---

// UpdateEmbedding stores the description embedding for a listing
func (r *PostgresRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	if !r.vectorEnabled {
		return fmt.Errorf("embeddings are disabled (pgvector unavailable)")
	}

	vec := pgvector.NewVector(embedding)
	query := `UPDATE raw_listings SET embedding = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, vec, id); err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return nil
}

// GetListingsMissingEmbedding returns the raw listings that have no
// stored embedding yet
func (r *PostgresRepository) GetListingsMissingEmbedding(ctx context.Context) ([]model.RawListing, error) {
	if !r.vectorEnabled {
		return nil, fmt.Errorf("embeddings are disabled (pgvector unavailable)")
	}

	var rows []rawListingRow
	query := fmt.Sprintf(`SELECT %s FROM raw_listings WHERE embedding IS NULL ORDER BY id`, rawListingColumns)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch listings without embedding: %w", err)
	}

	listings := make([]model.RawListing, len(rows))
	for i, row := range rows {
		listings[i] = row.toModel()
	}
	return listings, nil
}

// SimilarListingIDs returns the ids of the listings whose description
// embedding is closest to the given listing's, nearest first
func (r *PostgresRepository) SimilarListingIDs(ctx context.Context, id string, limit int) ([]string, error) {
	if !r.vectorEnabled {
		return nil, fmt.Errorf("embeddings are disabled (pgvector unavailable)")
	}

	var ids []string
	query := `
		SELECT b.id
		FROM raw_listings a
		JOIN raw_listings b ON b.id <> a.id AND b.embedding IS NOT NULL
		WHERE a.id = $1 AND a.embedding IS NOT NULL
		ORDER BY a.embedding <=> b.embedding
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &ids, query, id, limit); err != nil {
		return nil, fmt.Errorf("failed to find similar listings: %w", err)
	}
	return ids, nil
}

// --- admin ---

// GetStats returns stored entity counts. The combined count is the size
// of the inner join, i.e. how many listings completed the pipeline.
func (r *PostgresRepository) GetStats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	query := `
		SELECT
			(SELECT COUNT(*) FROM raw_listings) AS raw_listings,
			(SELECT COUNT(*) FROM processed_listings) AS processed_listings,
			(SELECT COUNT(*) FROM geodata) AS geo_data,
			(SELECT COUNT(*)
				FROM raw_listings r
				JOIN processed_listings p ON p.id = r.id
				JOIN geodata g ON g.id = r.id) AS combined_listings
	`
	row := r.db.QueryRowxContext(ctx, query)
	if err := row.Scan(&stats.RawListings, &stats.ProcessedListings, &stats.GeoData, &stats.CombinedListings); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

// ClearAllData wipes every entity table
func (r *PostgresRepository) ClearAllData(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"raw_listings", "processed_listings", "geodata", "user_actions"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}
