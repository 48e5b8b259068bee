package ingest

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const dump = `{"_id": "1", "_source": {"nodeRef": {"id": "a"}, "properties": {"cclom:title": "Brüche"}}}

{"_id": "2", "_source": {"nodeRef": {"id": "b"}}}
{"_id": "3", "_source": {"nodeRef": {"id": "c"}}}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if strings.HasSuffix(name, ".gz") {
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		gz := gzip.NewWriter(f)
		if _, err := gz.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
		if err := gz.Close(); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
		return path
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func ids(t *testing.T, payloads []map[string]any) []string {
	t.Helper()
	var out []string
	for _, p := range payloads {
		node, _ := p["nodeRef"].(map[string]any)
		out = append(out, fmt.Sprint(node["id"]))
	}
	return out
}

func TestRead(t *testing.T) {
	payloads, err := Read(context.Background(), strings.NewReader(dump), Options{Prefix: "_source"})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids(t, payloads)); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
	props := payloads[0]["properties"].(map[string]any)
	if props["cclom:title"] != "Brüche" {
		t.Errorf("unexpected payload %v", payloads[0])
	}
}

func TestRead_NoPrefix(t *testing.T) {
	payloads, err := Read(context.Background(), strings.NewReader(`{"nodeRef": {"id": "x"}}`), Options{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff([]string{"x"}, ids(t, payloads)); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
}

func TestRead_MaxRecords(t *testing.T) {
	payloads, err := Read(context.Background(), strings.NewReader(dump), Options{Prefix: "_source", MaxRecords: 2})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(payloads) != 2 {
		t.Errorf("expected 2 payloads, got %d", len(payloads))
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"invalid json", "{not json}\n", "line 1: decode entry"},
		{"prefix not object", `{"_source": "text"}`, `prefix "_source" is not an object`},
		{"prefix missing", `{"other": {}}`, `prefix "_source" not found`},
		{"array entry", `[1, 2]`, "line 1: decode entry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader(tt.input), Options{Prefix: "_source"})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRead_NestedPrefix(t *testing.T) {
	payloads, err := Read(context.Background(), strings.NewReader(`{"hit": {"doc": {"nodeRef": {"id": "n"}}}}`), Options{Prefix: "hit/doc", Separator: "/"})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if diff := cmp.Diff([]string{"n"}, ids(t, payloads)); diff != "" {
		t.Errorf("unexpected ids (-want +got):\n%s", diff)
	}
}

func TestRead_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Read(ctx, strings.NewReader(dump), Options{Prefix: "_source"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReadFile_Gzip(t *testing.T) {
	dir := t.TempDir()
	plain := writeFile(t, dir, "dump.jsonl", dump)
	zipped := writeFile(t, dir, "dump.jsonl.gz", dump)

	a, err := ReadFile(context.Background(), plain, Options{Prefix: "_source"})
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	b, err := ReadFile(context.Background(), zipped, Options{Prefix: "_source"})
	if err != nil {
		t.Fatalf("ReadFile gz failed: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("gzip and plain differ (-plain +gz):\n%s", diff)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"), Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadFiles_Order(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	var want []string
	for i := range 6 {
		id := fmt.Sprintf("f%d", i)
		paths = append(paths, writeFile(t, dir, id+".jsonl", fmt.Sprintf(`{"_source": {"nodeRef": {"id": %q}}}`, id)))
		want = append(want, id)
	}

	payloads, err := ReadFiles(context.Background(), paths, Options{Prefix: "_source", Workers: 3})
	if err != nil {
		t.Fatalf("ReadFiles failed: %v", err)
	}
	if diff := cmp.Diff(want, ids(t, payloads)); diff != "" {
		t.Errorf("files must be concatenated in argument order (-want +got):\n%s", diff)
	}

	capped, _ := ReadFiles(context.Background(), paths, Options{Prefix: "_source", MaxRecords: 4})
	if len(capped) != 4 {
		t.Errorf("expected combined cap of 4, got %d", len(capped))
	}
}

func TestReadFiles_Error(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.jsonl", dump)
	bad := writeFile(t, dir, "bad.jsonl", "{broken\n")

	_, err := ReadFiles(context.Background(), []string{good, bad}, Options{Prefix: "_source"})
	if err == nil || !strings.Contains(err.Error(), "bad.jsonl") {
		t.Errorf("expected error naming bad.jsonl, got %v", err)
	}
}
