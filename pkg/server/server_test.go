package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/config"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/pipeline"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "output")
	if err := os.Mkdir(outputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(dir, "contacts.csv")
	content := "First Name,Last Name,Email,Mobile\nJane,Doe,jane@x.com,5551234567\n"
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		TargetFile:      target,
		OutputDir:       outputDir,
		ChunkSize:       100,
		ReconcilePolicy: "first_match",
		PhoneMatchMode:  "all_digits",
		FuzzyThreshold:  90,
		Mailchimp:       &config.MailchimpConfig{},
		Server:          config.ServerConfig{Port: 5000},
	}
	return New(pipeline.New(cfg, nil), outputDir, []string{"*"}, nil), outputDir
}

func TestScriptsEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scripts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Scripts []pipeline.StageInfo `json:"scripts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Scripts) != 4 {
		t.Errorf("expected 4 stages, got %d", len(body.Scripts))
	}
}

func TestRunEndpoint(t *testing.T) {
	srv, outputDir := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/run",
		strings.NewReader(`{"script":"validate"}`))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		ReturnCode int `json:"returncode"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ReturnCode != 0 {
		t.Errorf("returncode = %d, body %s", body.ReturnCode, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(outputDir, pipeline.ReportFile)); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestRunEndpointRejectsUnknownScript(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"script":"rm -rf"}`))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestOutputFileEndpoint(t *testing.T) {
	srv, outputDir := testServer(t)
	if err := os.WriteFile(filepath.Join(outputDir, "result.csv"), []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/output/result.csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Content != "a,b\n" {
		t.Errorf("content = %q", body.Content)
	}
}

func TestOutputFileRejectsTraversal(t *testing.T) {
	srv, _ := testServer(t)
	for _, path := range []string{
		"/output/../contacts.csv",
		"/output/..%2Fcontacts.csv",
		"/output/%2e%2e%2fcontacts.csv",
	} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code == http.StatusOK {
			t.Errorf("%s served content, want rejection", path)
		}
	}
}

func TestOutputFilesEndpoint(t *testing.T) {
	srv, outputDir := testServer(t)
	if err := os.WriteFile(filepath.Join(outputDir, "one.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/output-files", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Files) != 1 || body.Files[0] != "one.csv" {
		t.Errorf("files = %v", body.Files)
	}
}
