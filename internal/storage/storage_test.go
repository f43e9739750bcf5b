package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.Put(ctx, "logo_abc.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len("png-bytes")) {
		t.Errorf("Put size = %d", n)
	}

	rc, err := s.Get(ctx, "logo_abc.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "png-bytes" {
		t.Errorf("Get = %q", data)
	}

	if _, err := s.Put(ctx, "other.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	list, err := s.List(ctx, "logo_")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "logo_abc.png" || list[0].Size != 9 {
		t.Errorf("List = %+v", list)
	}

	if err := s.Delete(ctx, "logo_abc.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "logo_abc.png"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Get after delete = %v, want ErrBlobNotFound", err)
	}
	if err := s.Delete(ctx, "logo_abc.png"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("second Delete = %v, want ErrBlobNotFound", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"", ".", "..", "../secret", "a/b.png", `a\b.png`, "/etc/passwd"} {
		if _, err := s.Put(ctx, name, strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Put(%q) = %v, want ErrInvalidName", name, err)
		}
		if _, err := s.Get(ctx, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Get(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}
