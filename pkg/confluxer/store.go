package confluxer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// SetupSchema initializes the tables used by Store in the provided database.
// It is idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaModels = `
CREATE TABLE IF NOT EXISTS confluxer_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    source_path TEXT NOT NULL DEFAULT '',
    word_count INTEGER NOT NULL DEFAULT 0
);
`
		schemaWords = `
CREATE TABLE IF NOT EXISTS confluxer_words (
    model_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    word TEXT NOT NULL,
    PRIMARY KEY (model_id, position)
);
`
		schemaStarts = `
CREATE TABLE IF NOT EXISTS confluxer_starts (
    model_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    fragment TEXT NOT NULL,
    PRIMARY KEY (model_id, position)
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS confluxer_transitions (
    model_id INTEGER NOT NULL,
    fragment TEXT NOT NULL,
    next_fragment TEXT NOT NULL,
    frequency INTEGER NOT NULL DEFAULT 1,
    position INTEGER NOT NULL,
    PRIMARY KEY (model_id, fragment, next_fragment)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, schema := range []string{schemaModels, schemaWords, schemaStarts, schemaTransitions} {
		if _, err = tx.Exec(schema); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// ModelInfo holds the metadata of a stored model.
type ModelInfo struct {
	Id         int
	Name       string
	SourcePath string
	WordCount  int
}

// Store persists built models in a SQLite database under a unique name.
// SetupSchema must have been called on the database first.
type Store struct {
	db                *sql.DB
	stmtGetModelInfo  *sql.Stmt
	stmtGetModels     *sql.Stmt
	stmtGetWords      *sql.Stmt
	stmtGetStarts     *sql.Stmt
	stmtGetTransition *sql.Stmt
	logger            *slog.Logger
}

// NewStore prepares the statements used to read models and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetModelInfo, err := db.Prepare(`SELECT model_id, source_path, word_count FROM confluxer_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetModels, err := db.Prepare(`SELECT model_id, model_name, source_path, word_count FROM confluxer_models ORDER BY model_name;`)
	if err != nil {
		return nil, err
	}

	stmtGetWords, err := db.Prepare(`SELECT word FROM confluxer_words WHERE model_id = ? ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	stmtGetStarts, err := db.Prepare(`SELECT fragment FROM confluxer_starts WHERE model_id = ? ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	stmtGetTransition, err := db.Prepare(`SELECT fragment, next_fragment, frequency FROM confluxer_transitions WHERE model_id = ? ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                db,
		stmtGetModelInfo:  stmtGetModelInfo,
		stmtGetModels:     stmtGetModels,
		stmtGetWords:      stmtGetWords,
		stmtGetStarts:     stmtGetStarts,
		stmtGetTransition: stmtGetTransition,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements held by the Store. The database
// itself is left open.
func (s *Store) Close() {
	_ = s.stmtGetModelInfo.Close()
	_ = s.stmtGetModels.Close()
	_ = s.stmtGetWords.Close()
	_ = s.stmtGetStarts.Close()
	_ = s.stmtGetTransition.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// GetModelInfos returns the metadata of every stored model, ordered by name.
func (s *Store) GetModelInfos(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var models []ModelInfo
	for rows.Next() {
		var info ModelInfo
		if err = rows.Scan(&info.Id, &info.Name, &info.SourcePath, &info.WordCount); err != nil {
			return nil, err
		}
		models = append(models, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// GetModelInfo returns the metadata of the model called name. The error wraps
// sql.ErrNoRows if there is no such model.
func (s *Store) GetModelInfo(ctx context.Context, name string) (ModelInfo, error) {
	info := ModelInfo{Name: name}
	err := s.stmtGetModelInfo.QueryRowContext(ctx, name).Scan(&info.Id, &info.SourcePath, &info.WordCount)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not get model '%s': %w", name, err)
	}
	return info, nil
}

// SaveModel stores m under name, replacing any model already stored with that
// name. The whole operation runs in one transaction.
func (s *Store) SaveModel(ctx context.Context, name, sourcePath string, m *Model) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var oldID int
	err = tx.QueryRowContext(ctx, "SELECT model_id FROM confluxer_models WHERE model_name = ?", name).Scan(&oldID)
	switch {
	case err == nil:
		if err = deleteModelRows(ctx, tx, oldID); err != nil {
			return err
		}
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to query for model '%s': %w", name, err)
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO confluxer_models (model_name, source_path, word_count) VALUES (?, ?, ?)", name, sourcePath, len(m.Words))
	if err != nil {
		return fmt.Errorf("failed to insert model '%s': %w", name, err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	modelID := int(newID)

	stmtInsertWord, err := tx.PrepareContext(ctx, `INSERT INTO confluxer_words (model_id, position, word) VALUES (?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare word insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertWord)

	for i, word := range m.Words {
		if _, err = stmtInsertWord.ExecContext(ctx, modelID, i, word); err != nil {
			return fmt.Errorf("failed to insert word '%s': %w", word, err)
		}
	}

	stmtInsertStart, err := tx.PrepareContext(ctx, `INSERT INTO confluxer_starts (model_id, position, fragment) VALUES (?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare start insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertStart)

	for i, fragment := range m.Starts {
		if _, err = stmtInsertStart.ExecContext(ctx, modelID, i, fragment); err != nil {
			return fmt.Errorf("failed to insert start fragment '%s': %w", fragment, err)
		}
	}

	// Position keeps the first-seen order of each link so a loaded model
	// lists successors in the same order as the one that was saved.
	stmtInsertLink, err := tx.PrepareContext(ctx, `
		INSERT INTO confluxer_transitions (model_id, fragment, next_fragment, frequency, position) VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(model_id, fragment, next_fragment) DO UPDATE SET frequency = frequency + 1;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transition insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertLink)

	var links int
	for _, fragment := range sortedKeys(m.Transitions) {
		for _, next := range m.Transitions[fragment] {
			if _, err = stmtInsertLink.ExecContext(ctx, modelID, fragment, next, links); err != nil {
				return fmt.Errorf("failed to insert transition (%s -> %s): %w", fragment, next, err)
			}
			links++
		}
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", name),
		slog.Int("model_id", modelID),
		slog.Int("words", len(m.Words)),
		slog.Int("starts", len(m.Starts)),
		slog.Int("transitions", links),
	)

	return tx.Commit()
}

// LoadModel reads the model stored under name. Successor lists come back
// grouped by next fragment in first-seen order, with each entry repeated as
// often as it was observed, so selection weights are unchanged. The error
// wraps sql.ErrNoRows if there is no such model.
func (s *Store) LoadModel(ctx context.Context, name string) (*Model, error) {
	info, err := s.GetModelInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Words:       make([]string, 0, info.WordCount),
		Starts:      []string{},
		Transitions: make(map[string][]string),
	}

	if m.Words, err = queryStrings(ctx, s.stmtGetWords, info.Id, m.Words); err != nil {
		return nil, fmt.Errorf("could not load words for model '%s': %w", name, err)
	}
	if m.Starts, err = queryStrings(ctx, s.stmtGetStarts, info.Id, m.Starts); err != nil {
		return nil, fmt.Errorf("could not load start fragments for model '%s': %w", name, err)
	}

	rows, err := s.stmtGetTransition.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not load transitions for model '%s': %w", name, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var fragment, next string
		var freq int
		if err = rows.Scan(&fragment, &next, &freq); err != nil {
			return nil, err
		}
		for i := 0; i < freq; i++ {
			m.Transitions[fragment] = append(m.Transitions[fragment], next)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Model loaded",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
	)
	return m, nil
}

// RemoveModel deletes the model called name and all of its rows. Removing a
// model that does not exist is not an error.
func (s *Store) RemoveModel(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var modelID int
	err = tx.QueryRowContext(ctx, "SELECT model_id FROM confluxer_models WHERE model_name = ?", name).Scan(&modelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query for model '%s': %w", name, err)
	}

	if err = deleteModelRows(ctx, tx, modelID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", name),
		slog.Int("model_id", modelID),
	)
	return tx.Commit()
}

// deleteModelRows removes a model and everything that belongs to it.
func deleteModelRows(ctx context.Context, tx *sql.Tx, modelID int) error {
	for _, table := range []string{"confluxer_transitions", "confluxer_starts", "confluxer_words", "confluxer_models"} {
		query := fmt.Sprintf("DELETE FROM %s WHERE model_id = ?", table)
		if _, err := tx.ExecContext(ctx, query, modelID); err != nil {
			return fmt.Errorf("failed to remove %s rows for model %d: %w", table, modelID, err)
		}
	}
	return nil
}

// queryStrings appends the single string column returned by stmt to dst.
func queryStrings(ctx context.Context, stmt *sql.Stmt, modelID int, dst []string) ([]string, error) {
	rows, err := stmt.QueryContext(ctx, modelID)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var text string
		if err = rows.Scan(&text); err != nil {
			return nil, err
		}
		dst = append(dst, text)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return dst, nil
}
