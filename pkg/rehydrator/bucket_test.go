package rehydrator

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBucketGetSeedsAndCaches(t *testing.T) {
	eachFormat(t, func(t *testing.T, format string) {
		s := openStore(t, "tc1", format)
		b := s.Bucket("cleaned_up")
		if b.Key() != "cleaned_up" || b.Store() != s {
			t.Fatalf("bucket bound to %q/%p", b.Key(), b.Store())
		}

		v, err := b.Get(false)
		if err != nil {
			t.Fatal(err)
		}
		if v != false || b.Value != false {
			t.Fatalf("Get = %v, Value = %v; want false", v, b.Value)
		}
		if ok, _ := b.Exists(); !ok {
			t.Fatal("seeded bucket should exist")
		}
	})
}

func TestBucketsShareKey(t *testing.T) {
	eachFormat(t, func(t *testing.T, format string) {
		s := openStore(t, "tc1", format)
		b1 := s.Bucket("last_result")
		b2 := s.Bucket("last_result")

		if err := b1.Set(map[string]any{"id": 1, "status": "PASS"}); err != nil {
			t.Fatal(err)
		}
		want := map[string]any{"id": float64(1), "status": "PASS"}
		if diff := cmp.Diff(want, b1.Value); diff != "" {
			t.Fatalf("b1.Value mismatch (-want +got):\n%s", diff)
		}
		if b2.Value != nil {
			t.Fatal("b2 has not read anything yet")
		}

		got, err := b2.Load()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("b2.Load mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, mustLoad(t, s, "last_result")); diff != "" {
			t.Fatalf("store mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestBucketLoadInto(t *testing.T) {
	s := openStore(t, "tc1", "json")
	b := s.Bucket("job")
	if err := b.Set(struct {
		JobID int `json:"job_id"`
	}{JobID: 4242}); err != nil {
		t.Fatal(err)
	}

	var dst struct {
		JobID int `json:"job_id"`
	}
	if err := s.Bucket("job").LoadInto(&dst); err != nil {
		t.Fatal(err)
	}
	if dst.JobID != 4242 {
		t.Fatalf("JobID = %d, want 4242", dst.JobID)
	}
}

func TestBucketUnset(t *testing.T) {
	s := openStore(t, "tc1", "proto")
	b := s.Bucket("k")
	if err := b.Set("v"); err != nil {
		t.Fatal(err)
	}
	if err := b.Unset(); err != nil {
		t.Fatal(err)
	}
	if b.Value != nil {
		t.Fatalf("Value after Unset = %v", b.Value)
	}
	if ok, _ := b.Exists(); ok {
		t.Fatal("key should be gone")
	}
	if _, err := b.Load(); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestBucketSetFailureKeepsValue(t *testing.T) {
	s := openStore(t, "tc1", "json")
	b := s.Bucket("k")
	if err := b.Set("good"); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(make(chan struct{})); !errors.Is(err, ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
	if b.Value != "good" {
		t.Fatalf("Value = %v, want good", b.Value)
	}
}

func TestBucketString(t *testing.T) {
	s := openStore(t, "tc1", "json")
	b := s.Bucket("k")
	_ = b.Set(3)
	out := b.String()
	for _, want := range []string{`"k"`, `"tc1"`, "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() = %q, missing %s", out, want)
		}
	}
}
