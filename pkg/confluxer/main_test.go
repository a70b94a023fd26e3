package confluxer

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testCorpus is a small Barsoomian word list with comments and mixed case.
const testCorpus = `# Persons
Dejah Thoris Tars Tarkas Sola Sarkoja  # Tharks and Heliumites
Kantos Kan Tal Hajus Lorquas Ptomel
Carthoris Thuvia Woola

# Places
Helium Zodanga Ptarth Gathol Thark Warhoon
Korus Omean Dor Iss
`

// loopCorpus is a word list in which every fragment has at least one
// successor (ta ar ro ot ri is sa all lead on), so a walk over it never
// backtracks and always reaches any target length. Generation tests that
// draw random lengths use it; corpora with dead-end chains can legitimately
// exhaust the step cap.
const loopCorpus = `# Closed fragment cycles
Tarota Sarota Arisar
Rotari Isaris
`

// setupTestDB creates a new SQLite database and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// writeCorpus writes content to a file in a fresh temp dir and returns its path.
func writeCorpus(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}
	return path
}

// mustModel builds a model from a whitespace separated word list.
func mustModel(t testing.TB, corpus string) *Model {
	t.Helper()
	words, err := ParseWords(strings.NewReader(corpus))
	if err != nil {
		t.Fatalf("ParseWords() error = %v", err)
	}
	return BuildModel(words)
}

// scriptedSource replays a fixed list of choices, wrapping around at the end.
type scriptedSource struct {
	values []int
	next   int
}

func (s *scriptedSource) IntN(n int) int {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}
