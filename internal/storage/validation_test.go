package storage

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
)

func TestValidateContext(t *testing.T) {
	if err := validateContext(context.Background()); err != nil {
		t.Errorf("validateContext() error = %v", err)
	}
	//nolint:staticcheck // exercising the nil guard
	if err := validateContext(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("validateContext(nil) error = %v, want ErrNilContext", err)
	}
}

func TestValidateTransaction(t *testing.T) {
	valid := func() *model.Transaction {
		return &model.Transaction{UserID: 1, Merchant: "Shop", Amount: 10, Type: model.TypeDebit}
	}

	tests := []struct {
		mutate  func(*model.Transaction) *model.Transaction
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(t *model.Transaction) *model.Transaction { return t }},
		{name: "nil", mutate: func(*model.Transaction) *model.Transaction { return nil }, wantErr: ErrNilParameter},
		{name: "zero user", mutate: func(t *model.Transaction) *model.Transaction { t.UserID = 0; return t }, wantErr: ErrInvalidTransaction},
		{name: "unknown type", mutate: func(t *model.Transaction) *model.Transaction { t.Type = "refund"; return t }, wantErr: ErrInvalidTransaction},
		{name: "negative amount", mutate: func(t *model.Transaction) *model.Transaction { t.Amount = -1; return t }, wantErr: ErrInvalidTransaction},
		{name: "NaN amount", mutate: func(t *model.Transaction) *model.Transaction { t.Amount = math.NaN(); return t }, wantErr: ErrInvalidTransaction},
		{name: "infinite amount", mutate: func(t *model.Transaction) *model.Transaction { t.Amount = math.Inf(1); return t }, wantErr: ErrInvalidTransaction},
		{name: "zero amount", mutate: func(t *model.Transaction) *model.Transaction { t.Amount = 0; return t }},
		{name: "raw text only", mutate: func(t *model.Transaction) *model.Transaction { t.Merchant = ""; t.RawText = "POS 123"; return t }},
		{name: "no description", mutate: func(t *model.Transaction) *model.Transaction { t.Merchant = " "; return t }, wantErr: ErrInvalidTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransaction(tt.mutate(valid()))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateTransaction() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateTransaction() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, common.ErrValidation) {
				t.Errorf("validateTransaction() error = %v does not match ErrValidation", err)
			}
		})
	}
}

func TestValidateFilter(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name    string
		filter  service.TransactionFilter
		wantErr bool
	}{
		{name: "user only", filter: service.TransactionFilter{UserID: 1}},
		{name: "ordered range", filter: service.TransactionFilter{UserID: 1, StartDate: &earlier, EndDate: &now}},
		{name: "same instant", filter: service.TransactionFilter{UserID: 1, StartDate: &now, EndDate: &now}},
		{name: "reversed range", filter: service.TransactionFilter{UserID: 1, StartDate: &now, EndDate: &earlier}, wantErr: true},
		{name: "no user", filter: service.TransactionFilter{}, wantErr: true},
		{name: "negative offset", filter: service.TransactionFilter{UserID: 1, Offset: -5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilter(tt.filter)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrValidation) {
				t.Errorf("validateFilter() error = %v does not match ErrValidation", err)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "value", input: "abc"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace", input: " \t", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.input, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
