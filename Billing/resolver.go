package Billing

import (
	"context"
	"errors"
	"strings"

	"Weighbridge/Models"
)

// Resolution is the outcome of looking a token up in the store.
type Resolution struct {
	Found   bool
	Entry   Models.CottonEntry
	Matches int
	// Anomaly is set when the legacy field query returned more than one
	// record for the token. Entry then holds the first match in query
	// order so the operator can still proceed.
	Anomaly bool
}

// Resolver answers "does a record exist for this token". New records are
// keyed directly by token, so the primary path is a point read; the field
// query only exists to reach records created by the earlier generated-ID
// deployment.
type Resolver struct {
	Store Models.EntryStore
}

func (r *Resolver) Resolve(ctx context.Context, tokenNo string) (Resolution, error) {
	tokenNo = strings.TrimSpace(tokenNo)
	if tokenNo == "" {
		return Resolution{}, &ValidationError{Field: "token_no", Reason: "token number is required"}
	}

	entry, err := r.Store.Get(ctx, tokenNo)
	if err == nil {
		return Resolution{Found: true, Entry: entry, Matches: 1}, nil
	}
	if !errors.Is(err, Models.ErrNotFound) {
		return Resolution{}, &StoreError{Op: "get", Err: err}
	}

	matches, err := r.Store.QueryByToken(ctx, tokenNo)
	if err != nil {
		return Resolution{}, &StoreError{Op: "query", Err: err}
	}
	switch len(matches) {
	case 0:
		return Resolution{}, nil
	case 1:
		return Resolution{Found: true, Entry: matches[0], Matches: 1}, nil
	default:
		return Resolution{Found: true, Entry: matches[0], Matches: len(matches), Anomaly: true}, nil
	}
}
