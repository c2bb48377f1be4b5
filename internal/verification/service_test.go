package verification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dcoutinho/notacheck/internal/catalog"
	"github.com/dcoutinho/notacheck/internal/verification"
)

func TestService_Validate(t *testing.T) {
	type args struct {
		in verification.Input
	}

	type testCase struct {
		name         string
		args         args
		setupMock    func(cat *verification.MockCatalog, store *verification.MockStore)
		wantValid    bool
		wantDecision verification.Outcome
		wantMessage  string
		wantErr      bool
	}

	tests := []testCase{
		{
			name: "OpenNowSameMonth",
			args: args{
				in: verification.Input{
					Region:       "sp",
					Invoice:      "15733",
					Order:        "75710",
					ReceivedDate: "2025-05-15",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "SP", int64(15733), int64(75710)).
					Return(catalog.Entry{PlanningToken: "2025/maio"}, nil)
				store.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, rec *verification.Record) error {
						assert.Equal(t, "SP", rec.Region)
						assert.Equal(t, int64(15733), rec.Invoice)
						assert.Equal(t, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), rec.ReceivedDate)
						return nil
					})
			},
			wantValid:    true,
			wantDecision: verification.OutcomeOpenNow,
			wantMessage:  "validation completed",
		},
		{
			name: "WaitMonthClose",
			args: args{
				in: verification.Input{
					Region:       "SP",
					Invoice:      "15733",
					Order:        "75710",
					ReceivedDate: "2025-04-01",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "SP", int64(15733), int64(75710)).
					Return(catalog.Entry{PlanningToken: "2025/maio"}, nil)
				store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantValid:    true,
			wantDecision: verification.OutcomeWaitMonthClose,
			wantMessage:  "validation completed",
		},
		{
			name: "NotInCatalog",
			args: args{
				in: verification.Input{
					Region:       "RJ",
					Invoice:      "999",
					Order:        "1",
					ReceivedDate: "2025-05-15",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "RJ", int64(999), int64(1)).
					Return(catalog.Entry{}, catalog.ErrNotFound)
			},
			wantValid:   false,
			wantMessage: "nota not found in planning catalog",
		},
		{
			name: "ManualReviewCategory",
			args: args{
				in: verification.Input{
					Region:       "mg",
					Invoice:      "42",
					Order:        "7",
					ReceivedDate: "2025-05-15",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "MG", int64(42), int64(7)).
					Return(catalog.Entry{
						PlanningToken: "2026/janeiro",
						Category:      "Engenharia de Redes",
					}, nil)
				store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantValid:    true,
			wantDecision: verification.OutcomeManualReview,
			wantMessage:  "category requires manual review",
		},
		{
			name: "ManualReviewPersistsEvenWithBadDate",
			args: args{
				in: verification.Input{
					Region:       "MG",
					Invoice:      "42",
					Order:        "7",
					ReceivedDate: "not-a-date",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "MG", int64(42), int64(7)).
					Return(catalog.Entry{Category: "engenharia de redes"}, nil)
				store.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, rec *verification.Record) error {
						assert.True(t, rec.ReceivedDate.IsZero())
						return nil
					})
			},
			wantValid:    true,
			wantDecision: verification.OutcomeManualReview,
			wantMessage:  "category requires manual review",
		},
		{
			name: "InvalidReceivedDateNotPersisted",
			args: args{
				in: verification.Input{
					Region:       "SP",
					Invoice:      "15733",
					Order:        "75710",
					ReceivedDate: "15 de maio",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "SP", int64(15733), int64(75710)).
					Return(catalog.Entry{PlanningToken: "2025/maio"}, nil)
			},
			wantValid:    false,
			wantDecision: verification.OutcomeInvalidDate,
			wantMessage:  "received date has an unrecognized format",
		},
		{
			name: "DuplicateAnnotatesMessage",
			args: args{
				in: verification.Input{
					Region:       "SP",
					Invoice:      "15733",
					Order:        "75710",
					ReceivedDate: "2025-05-15",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "SP", int64(15733), int64(75710)).
					Return(catalog.Entry{PlanningToken: "2025/maio"}, nil)
				store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(verification.ErrDuplicate)
			},
			wantValid:    true,
			wantDecision: verification.OutcomeOpenNow,
			wantMessage:  "validation completed; record already exists, not saved again",
		},
		{
			name: "StoreOutageAnnotatesMessage",
			args: args{
				in: verification.Input{
					Region:       "SP",
					Invoice:      "15733",
					Order:        "75710",
					ReceivedDate: "2025-05-15",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "SP", int64(15733), int64(75710)).
					Return(catalog.Entry{PlanningToken: "2025/maio"}, nil)
				store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
			},
			wantValid:    true,
			wantDecision: verification.OutcomeOpenNow,
			wantMessage:  "validation completed; warning: record not persisted: connection refused",
		},
		{
			name: "MissingRegion",
			args: args{
				in: verification.Input{
					Invoice:      "15733",
					Order:        "75710",
					ReceivedDate: "2025-05-15",
				},
			},
			wantErr: true,
		},
		{
			name: "RegionTooLong",
			args: args{
				in: verification.Input{
					Region:       "SAOPAULO",
					Invoice:      "15733",
					Order:        "75710",
					ReceivedDate: "2025-05-15",
				},
			},
			wantErr: true,
		},
		{
			name: "NonNumericInvoice",
			args: args{
				in: verification.Input{
					Region:       "SP",
					Invoice:      "abc",
					Order:        "75710",
					ReceivedDate: "2025-05-15",
				},
			},
			wantErr: true,
		},
		{
			name: "NegativeOrder",
			args: args{
				in: verification.Input{
					Region:       "SP",
					Invoice:      "15733",
					Order:        "-1",
					ReceivedDate: "2025-05-15",
				},
			},
			wantErr: true,
		},
		{
			name: "CatalogLoadFailureAborts",
			args: args{
				in: verification.Input{
					Region:       "SP",
					Invoice:      "15733",
					Order:        "75710",
					ReceivedDate: "2025-05-15",
				},
			},
			setupMock: func(cat *verification.MockCatalog, store *verification.MockStore) {
				cat.EXPECT().
					Lookup(gomock.Any(), "SP", int64(15733), int64(75710)).
					Return(catalog.Entry{}, &catalog.LoadError{Reason: "file missing"})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			cat := verification.NewMockCatalog(ctrl)
			store := verification.NewMockStore(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(cat, store)
			}

			svc := verification.NewService(cat, store)
			got, err := svc.Validate(context.Background(), tt.args.in)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantDecision, got.Decision)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}

func TestService_Validate_InputErrorField(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := verification.NewService(
		verification.NewMockCatalog(ctrl),
		verification.NewMockStore(ctrl),
	)

	_, err := svc.Validate(context.Background(), verification.Input{
		Region:       "SP",
		Invoice:      "15733",
		ReceivedDate: "2025-05-15",
	})

	var inputErr *verification.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "order", inputErr.Field)
}

func TestService_Validate_CustomManualCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cat := verification.NewMockCatalog(ctrl)
	store := verification.NewMockStore(ctrl)

	cat.EXPECT().
		Lookup(gomock.Any(), "SP", int64(1), int64(2)).
		Return(catalog.Entry{PlanningToken: "2025/maio", Category: "logistica"}, nil)
	store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	svc := verification.NewService(cat, store,
		verification.WithManualReviewCategory("logistica"))

	got, err := svc.Validate(context.Background(), verification.Input{
		Region:       "SP",
		Invoice:      "1",
		Order:        "2",
		ReceivedDate: "2025-05-15",
	})

	require.NoError(t, err)
	assert.Equal(t, verification.OutcomeManualReview, got.Decision)
}
