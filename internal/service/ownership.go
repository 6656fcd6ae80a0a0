package service

import (
	"context"
	"fmt"

	"github.com/stacklok/agent-directory/internal/card"
)

//go:generate mockgen -destination=mocks/mock_ownership.go -package=mocks -source=ownership.go OwnershipVerifier

// OwnershipVerifier confirms that the agent behind an entry still publishes
// the card the entry was built from
type OwnershipVerifier interface {
	VerifyOwnership(ctx context.Context, entry *Entry) error
}

// CardOwnershipVerifier re-fetches the published card and requires its name
// and description to match the stored entry
type CardOwnershipVerifier struct {
	fetcher card.Fetcher
}

// NewCardOwnershipVerifier creates a verifier backed by fetcher
func NewCardOwnershipVerifier(fetcher card.Fetcher) *CardOwnershipVerifier {
	return &CardOwnershipVerifier{fetcher: fetcher}
}

// VerifyOwnership implements OwnershipVerifier. Fetch failures are returned
// as *card.FetchError, mismatches as ErrOwnershipUnverified.
func (v *CardOwnershipVerifier) VerifyOwnership(ctx context.Context, entry *Entry) error {
	result, err := v.fetcher.Fetch(ctx, entry.PublishedURL)
	if err != nil {
		return err
	}

	published := card.FromDocument(result.Document)
	if published.Name != entry.Name {
		return fmt.Errorf("%w: published name %q does not match %q", ErrOwnershipUnverified, published.Name, entry.Name)
	}
	if published.Description != entry.Description {
		return fmt.Errorf("%w: published description does not match", ErrOwnershipUnverified)
	}
	return nil
}
