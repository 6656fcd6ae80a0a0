package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stacklok/agent-directory/internal/card"
	"github.com/stacklok/agent-directory/internal/db/sqlc"
	"github.com/stacklok/agent-directory/internal/events"
	"github.com/stacklok/agent-directory/internal/otel"
	"github.com/stacklok/agent-directory/internal/service"
	"github.com/stacklok/agent-directory/internal/versions"
)

// Registration outcomes recorded in metrics
const (
	outcomeCreated  = "created"
	outcomeExisting = "existing"
	outcomeWarning  = "warning"
	outcomeInvalid  = "invalid-url"
	outcomeRejected = "validation-error"
	outcomeError    = "store-error"
)

// Register implements DirectoryService.Register
func (s *dbService) Register(
	ctx context.Context,
	opts ...service.Option[service.RegisterOptions],
) (*service.RegistrationResult, error) {
	ctx, span := s.startSpan(ctx, "dbService.Register")
	defer span.End()

	options := &service.RegisterOptions{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}

	publishedURL, err := s.normalizeURL(ctx, options.URL)
	if err != nil {
		s.metrics.RecordRegistration(ctx, outcomeInvalid)
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrAgentURL.String(publishedURL))

	querier := sqlc.New(s.pool)
	agent, err := querier.InsertAgent(ctx, emptyDescriptor(options.Author).insertParams(publishedURL))
	if errors.Is(err, pgx.ErrNoRows) {
		// The URL is already registered
		result, err := s.existingEntry(ctx, querier, publishedURL)
		if err != nil {
			s.metrics.RecordRegistration(ctx, outcomeError)
			otel.RecordError(span, err)
			return nil, err
		}
		s.metrics.RecordRegistration(ctx, outcomeExisting)
		span.SetAttributes(otel.AttrCreated.Bool(false))
		return result, nil
	}
	if err != nil {
		s.metrics.RecordRegistration(ctx, outcomeError)
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	span.SetAttributes(otel.AttrAgentID.String(agent.ID.String()), otel.AttrCreated.Bool(true))

	c, warnings, _ := s.describe(ctx, publishedURL)
	if c != nil {
		agent, err = s.storeDescriptor(ctx, querier, agent, c, options.Author)
		if err != nil {
			s.metrics.RecordRegistration(ctx, outcomeError)
			otel.RecordError(span, err)
			return nil, err
		}
	}

	if len(warnings) > 0 {
		s.metrics.RecordRegistration(ctx, outcomeWarning)
	} else {
		s.metrics.RecordRegistration(ctx, outcomeCreated)
	}

	slog.InfoContext(ctx, "Agent registered",
		"entry_id", agent.ID,
		"url", publishedURL,
		"warnings", len(warnings),
		"request_id", middleware.GetReqID(ctx))

	s.publish(ctx, events.NewChange(agent.ID, events.ReasonRegistered))

	return &service.RegistrationResult{
		Entry:    agentToEntry(agent),
		Created:  true,
		Warnings: warnings,
	}, nil
}

// CreateEntry implements DirectoryService.CreateEntry
func (s *dbService) CreateEntry(
	ctx context.Context,
	opts ...service.Option[service.CreateEntryOptions],
) (*service.RegistrationResult, error) {
	ctx, span := s.startSpan(ctx, "dbService.CreateEntry")
	defer span.End()

	options := &service.CreateEntryOptions{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}
	if options.Document == nil {
		err := fmt.Errorf("%w: card payload is required", service.ErrInvalidRequest)
		otel.RecordError(span, err)
		return nil, err
	}

	publishedURL, err := s.normalizeURL(ctx, options.URL)
	if err != nil {
		s.metrics.RecordRegistration(ctx, outcomeInvalid)
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrAgentURL.String(publishedURL))

	verdict := s.validator.Validate(options.Document)
	if !verdict.Conformant {
		s.metrics.RecordRegistration(ctx, outcomeRejected)
		err := &service.ValidationError{Violations: verdict.Violations}
		otel.RecordError(span, err)
		return nil, err
	}

	d, err := newDescriptor(card.FromDocument(options.Document), options.Author)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	querier := sqlc.New(s.pool)
	agent, err := querier.InsertAgent(ctx, d.insertParams(publishedURL))
	if errors.Is(err, pgx.ErrNoRows) {
		result, err := s.existingEntry(ctx, querier, publishedURL)
		if err != nil {
			s.metrics.RecordRegistration(ctx, outcomeError)
			otel.RecordError(span, err)
			return nil, err
		}
		s.metrics.RecordRegistration(ctx, outcomeExisting)
		return result, nil
	}
	if err != nil {
		s.metrics.RecordRegistration(ctx, outcomeError)
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	s.metrics.RecordRegistration(ctx, outcomeCreated)
	slog.InfoContext(ctx, "Agent created from submitted card",
		"entry_id", agent.ID,
		"url", publishedURL,
		"request_id", middleware.GetReqID(ctx))

	s.publish(ctx, events.NewChange(agent.ID, events.ReasonRegistered))

	return &service.RegistrationResult{
		Entry:    agentToEntry(agent),
		Created:  true,
		Warnings: []string{},
	}, nil
}

// RefreshEntry implements DirectoryService.RefreshEntry. Concurrent refreshes
// of one entry share a single fetch.
func (s *dbService) RefreshEntry(ctx context.Context, id uuid.UUID) (*service.RegistrationResult, error) {
	ctx, span := s.startSpan(ctx, "dbService.RefreshEntry")
	defer span.End()
	span.SetAttributes(otel.AttrAgentID.String(id.String()))

	// Detached from the caller so that one cancelled request does not fail
	// the others waiting on the same refresh
	v, err, shared := s.refreshes.Do(id.String(), func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	slog.DebugContext(ctx, "RefreshEntry completed",
		"entry_id", id,
		"shared", shared,
		"request_id", middleware.GetReqID(ctx))

	result := v.(*service.RegistrationResult)
	return &service.RegistrationResult{
		Entry:    result.Entry,
		Created:  false,
		Warnings: append([]string{}, result.Warnings...),
	}, nil
}

func (s *dbService) refresh(ctx context.Context, id uuid.UUID) (*service.RegistrationResult, error) {
	querier := sqlc.New(s.pool)

	current, err := getVisibleAgent(ctx, querier, id)
	if err != nil {
		return nil, err
	}

	agent, err := querier.ResetAgentConformance(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", service.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reset conformance: %w", err)
	}

	c, warnings, fetchErr := s.describe(ctx, current.PublishedUrl)
	if fetchErr != nil {
		s.publish(ctx, events.NewChange(id, events.ReasonRefreshed))
		return nil, fmt.Errorf("failed to refresh entry %s: %w", id, fetchErr)
	}

	if c != nil {
		logVersionChange(ctx, current, c.Version)
		agent, err = s.storeDescriptor(ctx, querier, agent, c, current.Author)
		if err != nil {
			return nil, err
		}
	}

	s.publish(ctx, events.NewChange(id, events.ReasonRefreshed))

	return &service.RegistrationResult{
		Entry:    agentToEntry(agent),
		Created:  false,
		Warnings: warnings,
	}, nil
}

// DeleteEntry implements DirectoryService.DeleteEntry
func (s *dbService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.startSpan(ctx, "dbService.DeleteEntry")
	defer span.End()
	span.SetAttributes(otel.AttrAgentID.String(id.String()))

	querier := sqlc.New(s.pool)
	agent, err := getVisibleAgent(ctx, querier, id)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}

	if err := s.verifier.VerifyOwnership(ctx, agentToEntry(agent)); err != nil {
		var fetchErr *card.FetchError
		if errors.As(err, &fetchErr) {
			span.SetAttributes(otel.AttrFetchKind.String(string(fetchErr.Kind)))
		}
		otel.RecordError(span, err)
		return fmt.Errorf("failed to verify ownership of entry %s: %w", id, err)
	}

	rows, err := querier.DeleteAgent(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", service.ErrNotFound, id)
	}

	slog.InfoContext(ctx, "Agent deleted",
		"entry_id", id,
		"url", agent.PublishedUrl,
		"request_id", middleware.GetReqID(ctx))

	s.publish(ctx, events.NewChange(id, events.ReasonDeleted))
	return nil
}

// normalizeURL canonicalizes raw and rejects URLs the fetcher would refuse
func (s *dbService) normalizeURL(ctx context.Context, raw string) (string, error) {
	publishedURL, err := card.NormalizeURL(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", service.ErrInvalidURL, err)
	}

	if s.checker != nil {
		if err := s.checker.CheckURL(ctx, publishedURL); err != nil {
			// Resolution failures are reported as fetch warnings later
			if card.Classify(err).Kind == card.KindSSRFBlocked {
				return "", fmt.Errorf("%w: %v", service.ErrInvalidURL, err)
			}
		}
	}

	return publishedURL, nil
}

// describe fetches and validates the card at publishedURL. A conformant card
// is returned; otherwise the reasons are returned as warnings. The fetch error
// is returned separately so refresh can surface it.
func (s *dbService) describe(ctx context.Context, publishedURL string) (*card.Card, []string, *card.FetchError) {
	result, err := s.fetcher.Fetch(ctx, publishedURL)
	if err != nil {
		fetchErr := card.Classify(err)
		return nil, []string{fmt.Sprintf("card could not be fetched (%s): %s", fetchErr.Kind, fetchErr.Detail)}, fetchErr
	}

	verdict := s.validator.Validate(result.Document)
	if !verdict.Conformant {
		warnings := make([]string, 0, len(verdict.Violations))
		for _, v := range verdict.Violations {
			warnings = append(warnings, "card is not conformant: "+v)
		}
		return nil, warnings, nil
	}

	return card.FromDocument(result.Document), []string{}, nil
}

func (*dbService) storeDescriptor(
	ctx context.Context,
	querier *sqlc.Queries,
	agent sqlc.Agent,
	c *card.Card,
	author string,
) (sqlc.Agent, error) {
	d, err := newDescriptor(c, author)
	if err != nil {
		return sqlc.Agent{}, err
	}

	updated, err := querier.UpdateAgentDescriptor(ctx, d.updateParams(agent))
	if errors.Is(err, pgx.ErrNoRows) {
		return sqlc.Agent{}, fmt.Errorf("%w: %s", service.ErrNotFound, agent.ID)
	}
	if err != nil {
		return sqlc.Agent{}, fmt.Errorf("failed to update entry: %w", err)
	}
	return updated, nil
}

func (*dbService) existingEntry(
	ctx context.Context,
	querier *sqlc.Queries,
	publishedURL string,
) (*service.RegistrationResult, error) {
	existing, err := querier.GetAgentByPublishedURL(ctx, publishedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing entry: %w", err)
	}

	slog.DebugContext(ctx, "URL already registered",
		"entry_id", existing.ID,
		"url", publishedURL,
		"request_id", middleware.GetReqID(ctx))

	return &service.RegistrationResult{
		Entry:    agentToEntry(existing),
		Created:  false,
		Warnings: []string{},
	}, nil
}

// logVersionChange logs how the published version moved between refreshes
func logVersionChange(ctx context.Context, current sqlc.Agent, published string) {
	if current.Version == "" {
		return
	}

	switch change := versions.Classify(current.Version, published); change {
	case versions.Unchanged:
	case versions.Downgraded:
		slog.WarnContext(ctx, "Agent version went backwards",
			"entry_id", current.ID,
			"from", current.Version,
			"to", published)
	default:
		slog.InfoContext(ctx, "Agent version "+change.String(),
			"entry_id", current.ID,
			"from", current.Version,
			"to", published)
	}
}
