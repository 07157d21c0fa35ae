package objectstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"fs":     NewFS(filepath.Join(t.TempDir(), "bucket")),
		"memory": NewMemory(),
	}
}

func TestStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			objs := map[string]string{
				"2022-12-27/XETR_2022-12-27_BINS_XETR08.csv": "a",
				"2022-12-27/XETR_2022-12-27_BINS_XETR09.csv": "b",
				"2022-12-28/XETR_2022-12-28_BINS_XETR08.csv": "c",
				"meta_file.csv": "d",
			}
			for k, v := range objs {
				if err := s.Put(ctx, k, []byte(v)); err != nil {
					t.Fatalf("put %s: %v", k, err)
				}
			}

			got, err := s.List(ctx, "2022-12-27")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			want := []string{
				"2022-12-27/XETR_2022-12-27_BINS_XETR08.csv",
				"2022-12-27/XETR_2022-12-27_BINS_XETR09.csv",
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("list = %v, want %v", got, want)
			}

			all, err := s.List(ctx, "")
			if err != nil {
				t.Fatalf("list all: %v", err)
			}
			if len(all) != len(objs) {
				t.Fatalf("list all = %v", all)
			}

			body, err := s.Get(ctx, "meta_file.csv")
			if err != nil || string(body) != "d" {
				t.Fatalf("get = %q, %v", body, err)
			}
		})
	}
}

func TestStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "k", []byte("old")); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "k", []byte("new")); err != nil {
				t.Fatalf("put: %v", err)
			}
			body, err := s.Get(ctx, "k")
			if err != nil || string(body) != "new" {
				t.Fatalf("get = %q, %v", body, err)
			}
		})
	}
}

func TestStore_GetMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "nope.csv")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStore_ListEmpty(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			keys, err := s.List(ctx, "2022-12-27")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(keys) != 0 {
				t.Fatalf("expected no keys, got %v", keys)
			}
		})
	}
}

func TestFS_RejectsEscapingKeys(t *testing.T) {
	s := NewFS(t.TempDir())
	for _, key := range []string{"../x", "/etc/passwd", ".", ".."} {
		if err := s.Put(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestFS_PutLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewFS(root)
	if err := s.Put(context.Background(), "2022-12-27/a.csv", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(root, "2022-12-27"))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.csv" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.Put(ctx, "k", []byte("abc"))
	b, _ := m.Get(ctx, "k")
	b[0] = 'z'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored body mutated: %q", again)
	}
	if m.Puts() != 1 {
		t.Fatalf("puts = %d", m.Puts())
	}
}

func TestPingFunc(t *testing.T) {
	missing := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err := PingFunc(missing)(); err == nil {
		t.Fatal("expected ping error for missing root")
	}
	if err := PingFunc(NewFS(t.TempDir()))(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := PingFunc(NewMemory())(); err != nil {
		t.Fatalf("memory ping: %v", err)
	}
}
