package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockRecalculator struct {
	mock.Mock
}

func (m *mockRecalculator) RecalculateInterest(ctx context.Context, asOf time.Time) (int, error) {
	args := m.Called(ctx, asOf)
	return args.Int(0), args.Error(1)
}

func TestRecalculationJob(t *testing.T) {
	tests := []struct {
		name    string
		updated int
		err     error
		message string
	}{
		{name: "success", updated: 3, message: "interest recalculation done"},
		{name: "partial failure", updated: 1, err: errors.New("LOAN9: boom"), message: "interest recalculation finished with errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockRecalculator{}
			svc.On("RecalculateInterest", mock.Anything, mock.MatchedBy(func(asOf time.Time) bool {
				return asOf.Hour() == 0 && asOf.Location() == time.UTC
			})).Return(tt.updated, tt.err).Once()
			core, logs := observer.New(zap.InfoLevel)

			recalculationJob(svc, time.UTC, zap.New(core))()

			svc.AssertExpectations(t)
			entries := logs.FilterMessage(tt.message).All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, int64(tt.updated), entries[0].ContextMap()["updated"])
			}
		})
	}
}
