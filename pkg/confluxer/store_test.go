package confluxer

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
)

// successorCounts turns a transition map into per-fragment frequency counts.
func successorCounts(m *Model) map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for fragment, next := range m.Transitions {
		counts[fragment] = make(map[string]int)
		for _, f := range next {
			counts[fragment][f]++
		}
	}
	return counts
}

func TestSaveAndLoadModel(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()
	m := mustModel(t, testCorpus)

	if err := s.SaveModel(ctx, "barsoom", "words.txt", m); err != nil {
		t.Fatalf("SaveModel() failed: %v", err)
	}

	loaded, err := s.LoadModel(ctx, "barsoom")
	if err != nil {
		t.Fatalf("LoadModel() failed: %v", err)
	}

	if !reflect.DeepEqual(loaded.Words, m.Words) {
		t.Errorf("words differ after round trip:\n got %q\nwant %q", loaded.Words, m.Words)
	}
	if !reflect.DeepEqual(loaded.Starts, m.Starts) {
		t.Errorf("starts differ after round trip:\n got %q\nwant %q", loaded.Starts, m.Starts)
	}
	if !reflect.DeepEqual(successorCounts(loaded), successorCounts(m)) {
		t.Error("transition frequencies differ after round trip")
	}

	info, err := s.GetModelInfo(ctx, "barsoom")
	if err != nil {
		t.Fatalf("GetModelInfo() failed: %v", err)
	}
	if info.SourcePath != "words.txt" || info.WordCount != len(m.Words) {
		t.Errorf("got unexpected model info: %+v", info)
	}
}

func TestSaveModelKeepsOrder(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()
	m := BuildModel([]string{"abd", "abc", "abd"})

	if err := s.SaveModel(ctx, "order", "", m); err != nil {
		t.Fatalf("SaveModel() failed: %v", err)
	}
	loaded, err := s.LoadModel(ctx, "order")
	if err != nil {
		t.Fatalf("LoadModel() failed: %v", err)
	}

	// Grouped by successor, in first-seen order.
	if got := loaded.Transitions["ab"]; !reflect.DeepEqual(got, []string{"bd", "bd", "bc"}) {
		t.Errorf("expected ab -> [bd bd bc], got %q", got)
	}
}

func TestSaveModelReplaces(t *testing.T) {
	db, s := setupTestDB(t)
	ctx := context.Background()

	if err := s.SaveModel(ctx, "names", "a.txt", BuildModel([]string{"abcd"})); err != nil {
		t.Fatalf("SaveModel() failed: %v", err)
	}
	if err := s.SaveModel(ctx, "names", "b.txt", BuildModel([]string{"wxyz"})); err != nil {
		t.Fatalf("second SaveModel() failed: %v", err)
	}

	loaded, err := s.LoadModel(ctx, "names")
	if err != nil {
		t.Fatalf("LoadModel() failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Starts, []string{"wx"}) {
		t.Errorf("expected replaced model, got starts %q", loaded.Starts)
	}

	var count int
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM confluxer_transitions").Scan(&count)
	if count != 2 {
		t.Errorf("expected 2 transition rows after replacing, found %d", count)
	}
}

func TestGetModelInfos(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	_ = s.SaveModel(ctx, "zodanga", "", BuildModel([]string{"zodanga"}))
	_ = s.SaveModel(ctx, "helium", "", BuildModel([]string{"helium"}))

	models, err := s.GetModelInfos(ctx)
	if err != nil {
		t.Fatalf("GetModelInfos() failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].Name != "helium" || models[1].Name != "zodanga" {
		t.Errorf("expected models ordered by name, got %+v", models)
	}
}

func TestRemoveModel(t *testing.T) {
	db, s := setupTestDB(t)
	ctx := context.Background()

	_ = s.SaveModel(ctx, "to_delete", "", BuildModel([]string{"delete"}))
	_ = s.SaveModel(ctx, "to_keep", "", BuildModel([]string{"keep"}))
	kept, _ := s.GetModelInfo(ctx, "to_keep")

	if err := s.RemoveModel(ctx, "to_delete"); err != nil {
		t.Fatalf("RemoveModel() failed: %v", err)
	}

	_, err := s.LoadModel(ctx, "to_delete")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows for deleted model, got %v", err)
	}

	var count int
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM confluxer_words WHERE model_id != ?", kept.Id).Scan(&count)
	if count != 0 {
		t.Errorf("expected no words left for the deleted model, found %d", count)
	}

	if _, err = s.LoadModel(ctx, "to_keep"); err != nil {
		t.Errorf("expected kept model to load, got %v", err)
	}

	// Removing again is not an error.
	if err := s.RemoveModel(ctx, "to_delete"); err != nil {
		t.Errorf("RemoveModel() on a missing model failed: %v", err)
	}
}
