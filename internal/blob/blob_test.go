package blob

import (
	"context"
	"errors"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	payload := []byte(`{"timestamp":100}`)
	if err := s.Put(ctx, "bobstat", payload); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := s.Get(ctx, "bobstat")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Get = %s, want %s", got, payload)
	}
}

func TestFileStoreNotFound(t *testing.T) {
	s := NewFileStore(t.TempDir())

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing key error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := s.Put(ctx, "stream", []byte(`{"timestamp":1}`)); err != nil {
		t.Fatalf("first Put error: %v", err)
	}
	if err := s.Put(ctx, "stream", []byte(`{"timestamp":2}`)); err != nil {
		t.Fatalf("second Put error: %v", err)
	}

	got, err := s.Get(ctx, "stream")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(got) != `{"timestamp":2}` {
		t.Errorf("Get after overwrite = %s, want the last written document", got)
	}
}
