package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bugbridge"
	"bugbridge/internal/repository"
)

type RunLogService struct {
	runRepo   repository.RunRepo
	eventRepo repository.EventRepo
}

func NewRunLogService(runRepo repository.RunRepo, eventRepo repository.EventRepo) *RunLogService {
	return &RunLogService{runRepo: runRepo, eventRepo: eventRepo}
}

var _ RunLog = (*RunLogService)(nil)

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f RunFilter) (RunFilter, error) {
	f.From = normalizeToUTC(f.From)
	f.To = normalizeToUTC(f.To)

	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return RunFilter{}, errInvalidTimeRange
	}

	f.Kind = strings.ToUpper(strings.TrimSpace(f.Kind))
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	return f, nil
}

// List returns recorded runs matching the filter, most recent first.
func (s *RunLogService) List(ctx context.Context, f RunFilter) ([]bugbridge.RunRecord, error) {
	f, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.runRepo.List(ctx, f.From, f.To, f.Kind, f.Status)
}

// Get returns one run and its event trail.
func (s *RunLogService) Get(ctx context.Context, id string) (bugbridge.RunRecord, []bugbridge.RunEvent, error) {
	rec, err := s.runRepo.Get(ctx, id)
	if err != nil {
		return bugbridge.RunRecord{}, nil, err
	}
	events, err := s.eventRepo.ListByRun(ctx, id)
	if err != nil {
		return bugbridge.RunRecord{}, nil, err
	}
	return rec, events, nil
}
