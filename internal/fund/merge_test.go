package fund

import (
	"testing"

	"github.com/mtlprog/poolshare/internal/domain"
)

func TestCheckRequests(t *testing.T) {
	tests := []struct {
		name     string
		requests []domain.ReinvestmentRequest
		want     []string
	}{
		{
			name: "clean batch",
			requests: []domain.ReinvestmentRequest{
				{InvestorID: "a", Action: domain.ActionReinvest},
				{InvestorID: "b", Action: domain.ActionWithdraw},
				{InvestorID: "c"},
			},
		},
		{
			name: "unknown action",
			requests: []domain.ReinvestmentRequest{
				{InvestorID: "a", Action: "donate"},
			},
			want: []string{ErrInvalidAction.Error()},
		},
		{
			name: "repeated investor reported once",
			requests: []domain.ReinvestmentRequest{
				{InvestorID: "a"},
				{InvestorID: "a", Action: domain.ActionWithdraw},
				{InvestorID: "a"},
			},
			want: []string{duplicateRequestMessage},
		},
		{
			name:     "empty batch",
			requests: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := checkRequests(tt.requests)
			if len(errs) != len(tt.want) {
				t.Fatalf("errors = %+v, want %d", errs, len(tt.want))
			}
			for i, e := range errs {
				if e.Message != tt.want[i] {
					t.Errorf("errors[%d] = %q, want %q", i, e.Message, tt.want[i])
				}
			}
		})
	}
}

func TestNameErrors(t *testing.T) {
	snapshot := domain.Snapshot{
		"a": {Name: "Alice"},
	}
	errs := nameErrors([]domain.ReinvestmentError{
		{InvestorID: "a", Message: "x"},
		{InvestorID: "b", Message: "y"},
		{InvestorID: "a", Name: "Kept", Message: "z"},
	}, snapshot)

	if errs[0].Name != "Alice" {
		t.Errorf("errs[0].Name = %q, want Alice", errs[0].Name)
	}
	if errs[1].Name != "" {
		t.Errorf("errs[1].Name = %q, want empty for unknown investor", errs[1].Name)
	}
	if errs[2].Name != "Kept" {
		t.Errorf("errs[2].Name = %q, want existing name kept", errs[2].Name)
	}
}
