package store

import (
	"os"
	"path/filepath"
	"testing"
)

func testVectors() [][]float32 {
	return [][]float32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 2, 0},
		{0, 0, 3},
	}
}

func TestFlatIndex_SelfRetrieval(t *testing.T) {
	idx := NewFlatIndex(3)
	vectors := testVectors()
	if err := idx.Add(vectors); err != nil {
		t.Fatalf("Add: %v", err)
	}

	for i, v := range vectors {
		results, err := idx.Search(v, 1)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].Ordinal != i {
			t.Errorf("vector %d: expected ordinal %d at rank 0, got %d", i, i, results[0].Ordinal)
		}
		if results[0].Distance != 0 {
			t.Errorf("vector %d: expected distance 0, got %f", i, results[0].Distance)
		}
	}
}

func TestFlatIndex_SquaredL2Order(t *testing.T) {
	idx := NewFlatIndex(3)
	if err := idx.Add(testVectors()); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{0, 0, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	wantOrd := []int{0, 1, 2, 3}
	wantDist := []float32{0, 1, 4, 9}
	for i := range wantOrd {
		if results[i].Ordinal != wantOrd[i] || results[i].Distance != wantDist[i] {
			t.Errorf("rank %d: expected (%d, %v), got (%d, %v)",
				i, wantOrd[i], wantDist[i], results[i].Ordinal, results[i].Distance)
		}
	}
}

func TestFlatIndex_KLargerThanIndex(t *testing.T) {
	idx := NewFlatIndex(3)
	idx.Add(testVectors()[:2])

	results, err := idx.Search([]float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestFlatIndex_Empty(t *testing.T) {
	idx := NewFlatIndex(3)
	results, err := idx.Search([]float32{1, 2, 3}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestFlatIndex_EmptyIgnoresQueryDimension(t *testing.T) {
	idx := NewFlatIndex(1536)
	results, err := idx.Search(make([]float32, 768), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx := NewFlatIndex(3)
	if err := idx.Add([][]float32{{1, 2}}); err == nil {
		t.Error("expected error adding wrong-sized vector")
	}
	if idx.Len() != 0 {
		t.Errorf("failed Add must not insert, got %d vectors", idx.Len())
	}
	if _, err := idx.Search([]float32{1}, 1); err == nil {
		t.Error("expected error searching with wrong-sized query")
	}
}

func TestFlatIndex_AddCopies(t *testing.T) {
	idx := NewFlatIndex(2)
	v := []float32{1, 1}
	idx.Add([][]float32{v})
	v[0] = 99

	stored, ok := idx.Vector(0)
	if !ok || stored[0] != 1 {
		t.Errorf("index must not alias caller slices, got %v", stored)
	}
	if _, ok := idx.Vector(1); ok {
		t.Error("expected no vector for ordinal 1")
	}
}

func TestFlatIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.flat")

	idx := NewFlatIndex(3)
	idx.Info = IndexInfo{BuildID: "build-1", Model: "hash"}
	if err := idx.Add(testVectors()); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFlatIndex(path)
	if err != nil {
		t.Fatalf("LoadFlatIndex: %v", err)
	}
	if loaded.Len() != 4 || loaded.Dimension() != 3 {
		t.Fatalf("expected 4x3 index, got %dx%d", loaded.Len(), loaded.Dimension())
	}
	if loaded.Info != idx.Info {
		t.Errorf("expected info %+v, got %+v", idx.Info, loaded.Info)
	}
	for i, v := range testVectors() {
		got, _ := loaded.Vector(i)
		for j := range v {
			if got[j] != v[j] {
				t.Fatalf("ordinal %d differs after reload: %v vs %v", i, got, v)
			}
		}
	}
}

func TestFlatIndex_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.flat")

	big := NewFlatIndex(3)
	big.Add(testVectors())
	if err := big.Save(path); err != nil {
		t.Fatal(err)
	}

	small := NewFlatIndex(3)
	small.Add(testVectors()[:1])
	if err := small.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFlatIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 1 {
		t.Errorf("expected stale vectors to be gone, got %d", loaded.Len())
	}
}

func TestFlatIndex_SaveLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.flat")
	if err := NewFlatIndex(8).Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFlatIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 0 || loaded.Dimension() != 8 {
		t.Errorf("unexpected empty index %dx%d", loaded.Len(), loaded.Dimension())
	}
}

func TestLoadFlatIndex_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFlatIndex(filepath.Join(dir, "missing.flat")); err == nil {
		t.Error("expected error for missing file")
	}

	garbage := filepath.Join(dir, "garbage.flat")
	if err := os.WriteFile(garbage, []byte("not a bolt file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFlatIndex(garbage); err == nil {
		t.Error("expected error for non-bolt file")
	}
}
