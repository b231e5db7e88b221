package services

import "errors"

// Operation errors surfaced to the dispatch layer. Validation failures
// inside a conversational flow are not errors; the flow re-prompts instead.
var (
	// ErrNotFound: unknown user, task, or withdrawal. Fatal to the
	// specific operation only.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyClaimed: an idempotency guard tripped; nothing changed.
	ErrAlreadyClaimed = errors.New("already claimed")

	// ErrNotEligible: a threshold, ticket, or balance check failed.
	ErrNotEligible = errors.New("not eligible")

	// ErrNotYetEligible: a click-count task needs more confirmations.
	ErrNotYetEligible = errors.New("not yet eligible")

	// ErrDailyAlreadyClaimed: the 24h daily-bonus window has not elapsed.
	ErrDailyAlreadyClaimed = errors.New("daily bonus already claimed today")

	// ErrInsufficientTickets: a round cannot start with zero tickets.
	ErrInsufficientTickets = errors.New("insufficient tickets")

	// ErrNoActiveRound: a move arrived with no open round session.
	ErrNoActiveRound = errors.New("no active round")

	// ErrNotVerified: the user has not passed official-channel verification.
	ErrNotVerified = errors.New("user not verified")

	// ErrExternalUnavailable: the membership oracle or transport failed;
	// the operation aborted with no partial mutation and can be retried.
	ErrExternalUnavailable = errors.New("external service unavailable")
)
