package fund

import (
	"github.com/samber/lo"

	"github.com/mtlprog/poolshare/internal/domain"
)

// duplicateRequestMessage is reported when a batch names the same investor twice.
const duplicateRequestMessage = "Duplicate request for investor"

// checkRequests rejects requests that cannot be judged against a snapshot:
// unknown actions and repeated investors. A repeated investor would claim the
// same commission twice, since every request sees the same snapshot.
func checkRequests(requests []domain.ReinvestmentRequest) []domain.ReinvestmentError {
	var errs []domain.ReinvestmentError
	for _, r := range requests {
		if !r.Action.Valid() {
			errs = append(errs, domain.ReinvestmentError{InvestorID: r.InvestorID, Message: ErrInvalidAction.Error()})
		}
	}

	dups := lo.FindDuplicatesBy(requests, func(r domain.ReinvestmentRequest) string { return r.InvestorID })
	for _, r := range dups {
		errs = append(errs, domain.ReinvestmentError{InvestorID: r.InvestorID, Message: duplicateRequestMessage})
	}
	return errs
}

// nameErrors fills investor names into errors from the snapshot where known.
func nameErrors(errs []domain.ReinvestmentError, snapshot domain.Snapshot) []domain.ReinvestmentError {
	return lo.Map(errs, func(e domain.ReinvestmentError, _ int) domain.ReinvestmentError {
		if m, ok := snapshot[e.InvestorID]; ok && e.Name == "" {
			e.Name = m.Name
		}
		return e
	})
}
