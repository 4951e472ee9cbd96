package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sample(t *testing.T) map[string]any {
	t.Helper()
	v, err := Normalize(map[string]any{
		"cleaned_up":  false,
		"count":       3,
		"ratio":       0.25,
		"name":        "tc-58731",
		"nothing":     nil,
		"tags":        []string{"smoke", "nightly"},
		"last_result": map[string]any{"id": 1, "status": "PASS"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return v.(map[string]any)
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Codec{JSON{}, Proto{}} {
		t.Run(c.Name(), func(t *testing.T) {
			want := sample(t)
			data, err := c.Encode(want)
			if err != nil {
				t.Fatal(err)
			}
			got, err := c.Decode(data)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmptyMapping(t *testing.T) {
	for _, c := range []Codec{JSON{}, Proto{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Encode(nil)
			if err != nil {
				t.Fatal(err)
			}
			got, err := c.Decode(data)
			if err != nil {
				t.Fatal(err)
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil map, got %#v", got)
			}
		})
	}
}

func TestValueRoundTrip(t *testing.T) {
	for name, want := range sample(t) {
		data, err := Proto{}.EncodeValue(want)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Proto{}.DecodeValue(data)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s: value mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestProtoDetectsCorruption(t *testing.T) {
	data, err := Proto{}.Encode(sample(t))
	if err != nil {
		t.Fatal(err)
	}

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-1] ^= 0xff

	badMagic := append([]byte(nil), data...)
	copy(badMagic, "XXXX")

	cases := map[string][]byte{
		"empty":     nil,
		"header":    data[:10],
		"truncated": data[:len(data)-3],
		"flipped":   flipped,
		"magic":     badMagic,
	}
	for name, in := range cases {
		if _, err := (Proto{}).Decode(in); !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestJSONDetectsCorruption(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"truncated": `{"a": 1, "b":`,
		"null":      "null",
		"array":     "[1, 2]",
		"trailing":  `{"a": 1} {"b": 2}`,
		"brace":     `{"a": 1}}`,
		"bracket":   `{"a": 1}]`,
		"garbage":   `{"a": 1} x`,
	}
	for name, in := range cases {
		if _, err := (JSON{}).Decode([]byte(in)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	type result struct {
		ID     int    `json:"id"`
		Status string `json:"status"`
	}
	got, err := Normalize(result{ID: 7, Status: "FAIL"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"id": float64(7), "status": "FAIL"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeUnsupported(t *testing.T) {
	for name, v := range map[string]any{
		"chan": make(chan int),
		"func": func() {},
		"nan":  math.NaN(),
	} {
		if _, err := Normalize(v); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", name, err)
		}
	}
}

func TestInto(t *testing.T) {
	var dst struct {
		ID     int    `json:"id"`
		Status string `json:"status"`
	}
	if err := Into(map[string]any{"id": float64(1), "status": "PASS"}, &dst); err != nil {
		t.Fatal(err)
	}
	if dst.ID != 1 || dst.Status != "PASS" {
		t.Fatalf("got %+v", dst)
	}

	var n int
	if err := Into("not a number", &n); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestFor(t *testing.T) {
	for _, name := range []string{"", "json", "proto"} {
		if _, err := For(name); err != nil {
			t.Errorf("For(%q): %v", name, err)
		}
	}
	if _, err := For("pickle"); err == nil {
		t.Error("For(pickle) should fail")
	}
}
