package service

import (
	"context"
	"testing"
	"time"
)

func TestJanitorSweep_AbortsStaleAndPrunes(t *testing.T) {
	rrepo := &fakeRunRepo{abortCount: 2}
	erepo := &fakeEventRepo{}
	j := NewJanitorService(rrepo, erepo)

	now := time.Date(2013, 7, 15, 12, 0, 0, 0, time.UTC)
	j.sweep(context.Background(), now)

	wantAbortBefore := now.Add(-StaleRunCutoff)
	if !rrepo.lastAbort.Equal(wantAbortBefore) {
		t.Fatalf("abort cutoff=%v, want %v", rrepo.lastAbort, wantAbortBefore)
	}
	if len(erepo.events) != 1 || erepo.events[0].Type != eventAborted {
		t.Fatalf("expected one ABORTED event, got %+v", erepo.events)
	}
	wantPruneBefore := now.Add(-EventRetention)
	if !erepo.lastPruned.Equal(wantPruneBefore) {
		t.Fatalf("prune cutoff=%v, want %v", erepo.lastPruned, wantPruneBefore)
	}
}

func TestJanitorSweep_NoStaleRuns_NoEvent(t *testing.T) {
	rrepo := &fakeRunRepo{abortCount: 0}
	erepo := &fakeEventRepo{}
	j := NewJanitorService(rrepo, erepo)

	j.sweep(context.Background(), time.Now())

	if len(erepo.events) != 0 {
		t.Fatalf("no event expected when nothing was aborted, got %+v", erepo.events)
	}
}

func TestJanitorRun_StopsOnCancel(t *testing.T) {
	rrepo := &fakeRunRepo{}
	erepo := &fakeEventRepo{}
	j := NewJanitorService(rrepo, erepo)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("janitor did not stop on context cancel")
	}
}
