package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stacklok/agent-directory/internal/db/sqlc"
	"github.com/stacklok/agent-directory/internal/events"
	"github.com/stacklok/agent-directory/internal/otel"
	"github.com/stacklok/agent-directory/internal/service"
)

// FlagEntry implements DirectoryService.FlagEntry. The flag row and the
// counter increment commit together; the hidden column is never touched.
func (s *dbService) FlagEntry(
	ctx context.Context,
	id uuid.UUID,
	opts ...service.Option[service.FlagOptions],
) (*service.FlagRecord, error) {
	ctx, span := s.startSpan(ctx, "dbService.FlagEntry")
	defer span.End()
	span.SetAttributes(otel.AttrAgentID.String(id.String()))

	options := &service.FlagOptions{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}
	if options.Reason == "" {
		err := fmt.Errorf("%w: reason is required", service.ErrInvalidRequest)
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrFlagReason.String(string(options.Reason)))

	var record *service.FlagRecord
	err := s.withTx(ctx, func(querier *sqlc.Queries) error {
		if _, err := getVisibleAgent(ctx, querier, id); err != nil {
			return err
		}

		count, err := querier.IncrementAgentFlagCount(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", service.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to increment flag count: %w", err)
		}

		flag, err := querier.InsertFlag(ctx, sqlc.InsertFlagParams{
			AgentID:  id,
			Reason:   string(options.Reason),
			Detail:   nullable(options.Detail),
			Reporter: options.Reporter,
		})
		if err != nil {
			return fmt.Errorf("failed to insert flag: %w", err)
		}

		record = flagToRecord(flag, count)
		return nil
	})
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	slog.InfoContext(ctx, "Agent flagged",
		"entry_id", id,
		"reason", options.Reason,
		"flag_count", record.FlagCount,
		"request_id", middleware.GetReqID(ctx))

	s.publish(ctx, events.NewChange(id, events.ReasonFlagged))
	return record, nil
}
