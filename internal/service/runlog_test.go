package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bugbridge"
)

func TestRunLogList_InvalidRange(t *testing.T) {
	svc := NewRunLogService(&fakeRunRepo{}, &fakeEventRepo{})

	_, err := svc.List(context.Background(), RunFilter{
		From: time.Date(2013, 7, 31, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2013, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected errInvalidTimeRange, got %v", err)
	}
}

func TestRunLogList_NormalizesFilter(t *testing.T) {
	rrepo := &fakeRunRepo{listResp: []bugbridge.RunRecord{{ID: "a"}}}
	svc := NewRunLogService(rrepo, &fakeEventRepo{})

	runs, err := svc.List(context.Background(), RunFilter{Kind: " track ", Status: "failed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected passthrough of repo result, got %+v", runs)
	}
}

func TestRunLogGet(t *testing.T) {
	rrepo := &fakeRunRepo{getResp: bugbridge.RunRecord{ID: "a", Kind: bugbridge.KindCalibrate}}
	erepo := &fakeEventRepo{listResp: []bugbridge.RunEvent{{EventID: "e1", RunID: "a"}}}
	svc := NewRunLogService(rrepo, erepo)

	rec, events, err := svc.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "a" || len(events) != 1 {
		t.Fatalf("unexpected result: %+v %+v", rec, events)
	}
	if erepo.lastListRun != "a" {
		t.Fatalf("events not fetched for run: %q", erepo.lastListRun)
	}
}

func TestRunLogGet_RepoError(t *testing.T) {
	rrepo := &fakeRunRepo{getErr: errors.New("db down")}
	svc := NewRunLogService(rrepo, &fakeEventRepo{})

	if _, _, err := svc.Get(context.Background(), "a"); err == nil {
		t.Fatalf("expected error")
	}
}
