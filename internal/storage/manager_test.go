// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads")

		if _, err := NewLocalStore(uploadDir); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)

		content := "0812\n0813\n"
		info, err := store.Save("numbers.txt", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Name != "numbers.txt" {
			t.Errorf("Expected name 'numbers.txt', got %v", info.Name)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.Status != "uploaded" {
			t.Errorf("Expected status 'uploaded', got %v", info.Status)
		}

		data, err := os.ReadFile(filepath.Join(store.uploadDir, info.ID))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})

	t.Run("saves empty file", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.SaveBytes("empty.txt", nil)
		if err != nil {
			t.Fatalf("Failed to save empty file: %v", err)
		}
		if info.Size != 0 {
			t.Errorf("Expected size 0, got %d", info.Size)
		}
	})

	t.Run("removes partial file on read error", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.Save("broken.txt", &errorReader{})
		if err == nil {
			t.Fatal("Expected error from failing reader")
		}

		entries, _ := os.ReadDir(store.uploadDir)
		if len(entries) != 0 {
			t.Errorf("Expected no files left behind, found %d", len(entries))
		}
	})
}

func TestLocalStore_GetAndOpen(t *testing.T) {
	store := createTestStore(t)

	saved, err := store.SaveBytes("a.txt", []byte("AAA0812"))
	if err != nil {
		t.Fatal(err)
	}

	info, err := store.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if info.Name != "a.txt" {
		t.Errorf("Expected name a.txt, got %s", info.Name)
	}

	rc, err := store.Open(saved.ID)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "AAA0812" {
		t.Errorf("Unexpected content %q", string(data))
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := store.Open("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_List(t *testing.T) {
	t.Run("sorts by upload time descending", func(t *testing.T) {
		store := createTestStore(t)

		first, _ := store.SaveBytes("first.txt", []byte("1"))
		time.Sleep(5 * time.Millisecond)
		second, _ := store.SaveBytes("second.txt", []byte("2"))

		list, err := store.List(10)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Fatalf("Expected 2 files, got %d", len(list))
		}
		if list[0].ID != second.ID || list[1].ID != first.ID {
			t.Error("Expected newest file first")
		}
	})

	t.Run("limits results", func(t *testing.T) {
		store := createTestStore(t)
		for i := 0; i < 5; i++ {
			store.SaveBytes(fmt.Sprintf("f%d.txt", i), []byte("x"))
		}

		list, _ := store.List(3)
		if len(list) != 3 {
			t.Errorf("Expected 3 files, got %d", len(list))
		}
	})
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)
	info, _ := store.SaveBytes("gone.txt", []byte("1"))

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.uploadDir, info.ID)); !os.IsNotExist(err) {
		t.Error("Expected physical file to be removed")
	}
	if err := store.Delete(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLocalStore_SetStatus(t *testing.T) {
	store := createTestStore(t)
	info, _ := store.SaveBytes("s.txt", []byte("1"))

	if err := store.SetStatus(info.ID, "converted"); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Get(info.ID)
	if got.Status != "converted" {
		t.Errorf("Expected status converted, got %s", got.Status)
	}
	if err := store.SetStatus("missing", "converted"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_ConcurrentAccess(t *testing.T) {
	store := createTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.SaveBytes(fmt.Sprintf("c%d.txt", i), []byte("1")); err != nil {
				t.Errorf("concurrent save failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	list, _ := store.List(0)
	if len(list) != 20 {
		t.Errorf("Expected 20 files, got %d", len(list))
	}
}

type errorReader struct{}

func (e *errorReader) Read(p []byte) (int, error) {
	return 0, errors.New("read error")
}

func TestPurge(t *testing.T) {
	store := createTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.SaveBytes(fmt.Sprintf("f%d.txt", i), []byte("1")); err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
	}

	removed, err := Purge(store)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Expected 3 removed, got %d", removed)
	}

	entries, err := os.ReadDir(store.uploadDir)
	if err != nil {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty upload dir, found %d entries", len(entries))
	}
}
