package anchorfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pdroll/internal/core"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "latest_month.txt")
	store := New(path)

	want := core.MonthEnd(2025, 7)
	if err := store.WriteAnchor(ctx, want); err != nil {
		t.Fatalf("WriteAnchor: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back file: %v", err)
	}
	if string(data) != "07/31/2025\n" {
		t.Errorf("file contents = %q, want %q", data, "07/31/2025\n")
	}

	got, err := store.ReadAnchor(ctx)
	if err != nil {
		t.Fatalf("ReadAnchor: %v", err)
	}
	if !got.SameMonth(want) {
		t.Errorf("anchor = %s, want %s", got, want)
	}
}

func TestStoreReadAnchorErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "nope.txt"))
		_, err := store.ReadAnchor(ctx)
		if !errors.Is(err, core.ErrConfigMissing) {
			t.Errorf("err = %v, want ErrConfigMissing", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.txt")
		if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := New(path).ReadAnchor(ctx)
		if !errors.Is(err, core.ErrConfigMissing) {
			t.Errorf("err = %v, want ErrConfigMissing", err)
		}
	})

	t.Run("unparseable contents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.txt")
		if err := os.WriteFile(path, []byte("2025-07-31\n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := New(path).ReadAnchor(ctx)
		if !errors.Is(err, core.ErrConfigInvalid) {
			t.Errorf("err = %v, want ErrConfigInvalid", err)
		}
	})

	t.Run("surrounding whitespace is tolerated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "padded.txt")
		if err := os.WriteFile(path, []byte("  06/30/2025  \n"), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := New(path).ReadAnchor(ctx)
		if err != nil {
			t.Fatalf("ReadAnchor: %v", err)
		}
		if !got.SameMonth(core.MonthEnd(2025, 6)) {
			t.Errorf("anchor = %s, want 06/2025", got)
		}
	})
}

func TestStoreWriteAnchorOverwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "anchor.txt")
	store := New(path)

	if err := store.WriteAnchor(ctx, core.MonthEnd(2025, 6)); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteAnchor(ctx, core.MonthEnd(2025, 7)); err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadAnchor(ctx)
	if err != nil {
		t.Fatalf("ReadAnchor: %v", err)
	}
	if !got.SameMonth(core.MonthEnd(2025, 7)) {
		t.Errorf("anchor = %s, want 07/2025", got)
	}
}
