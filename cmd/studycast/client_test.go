package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperjump/studycast/internal/models"
)

func TestAPIClient_Generate(t *testing.T) {
	var gotOwner string
	var gotReq models.GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/podcasts" {
			http.NotFound(w, r)
			return
		}
		gotOwner = r.Header.Get(ownerHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.GenerateSummary{ID: "pod-1", ChapterCount: 3, Status: models.StatusReady})
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL+"/", "alice", time.Second)
	summary, err := c.Generate(context.Background(), models.GenerateRequest{DocumentIDs: []string{"doc-1"}, TargetDuration: 5})
	if err != nil {
		t.Fatal(err)
	}
	if summary.ID != "pod-1" || summary.ChapterCount != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if gotOwner != "alice" {
		t.Errorf("owner header = %q, want alice", gotOwner)
	}
	if len(gotReq.DocumentIDs) != 1 || gotReq.TargetDuration != 5 {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestAPIClient_errorsMapToSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, models.ErrInput},
		{http.StatusUnauthorized, models.ErrUnauthorized},
		{http.StatusNotFound, models.ErrNotFound},
		{http.StatusConflict, models.ErrNotReady},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))
		_, err := newAPIClient(srv.URL, "", time.Second).Search(context.Background(), "pod-1", "q")
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	_, err := newAPIClient(srv.URL, "", time.Second).Status(context.Background())
	if err == nil || errors.Is(err, models.ErrInput) {
		t.Errorf("500: err = %v, want plain error", err)
	}
}

func TestAPIClient_SearchTranscriptQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/podcasts/pod-1/transcript/search" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(models.TranscriptResponse{
			Query:      r.URL.Query().Get("q"),
			Suggestion: r.URL.Query().Get("limit"),
		})
	}))
	defer srv.Close()

	resp, err := newAPIClient(srv.URL, "", time.Second).SearchTranscript(context.Background(), "pod-1", "calvin cycle", 7)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Query != "calvin cycle" || resp.Suggestion != "7" {
		t.Errorf("query params not passed through: %+v", resp)
	}
}

func TestAPIClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/podcasts/pod-1/download.wav":
			w.Header().Set("Content-Disposition", `attachment; filename="Photosynthesis.wav"`)
			_, _ = w.Write([]byte("RIFF"))
		default:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"podcast is not ready"}`))
		}
	}))
	defer srv.Close()
	c := newAPIClient(srv.URL, "", time.Second)

	var buf bytes.Buffer
	name, err := c.Download(context.Background(), "pod-1", "wav", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Photosynthesis.wav" || buf.String() != "RIFF" {
		t.Errorf("download = %q, %q", name, buf.String())
	}

	buf.Reset()
	if _, err := c.Download(context.Background(), "pod-2", "zip", &buf); !errors.Is(err, models.ErrNotReady) {
		t.Errorf("not ready download err = %v", err)
	}
	if buf.Len() != 0 {
		t.Error("error body must not be written to the output")
	}
}
