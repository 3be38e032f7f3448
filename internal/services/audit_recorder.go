package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const auditEntryIDPrefix = "adt_"

// AuditTrailDeps bundles collaborators required to construct an AuditRecorder.
type AuditTrailDeps struct {
	Logs        repositories.AuditLogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// Audit writes must never fail the admin action they describe, so Record
// swallows persistence errors after logging them.
type auditTrail struct {
	logs  repositories.AuditLogRepository
	clock func() time.Time
	newID func() string
	log   func(ctx context.Context, event string, fields map[string]any)
}

// NewAuditTrail wires dependencies into a concrete AuditRecorder implementation.
func NewAuditTrail(deps AuditTrailDeps) (AuditRecorder, error) {
	if deps.Logs == nil {
		return nil, errors.New("audit trail: log repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return auditEntryIDPrefix + ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &auditTrail{
		logs: deps.Logs,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
		log:   logger,
	}, nil
}

func (a *auditTrail) Record(ctx context.Context, entry AuditLogEntry) {
	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = a.newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = a.clock()
	}
	if entry.Severity == "" {
		entry.Severity = "info"
	}
	if err := a.logs.Append(ctx, entry); err != nil {
		a.log(ctx, "audit.append_failed", map[string]any{
			"action":     entry.Action,
			"target_ref": entry.TargetRef,
			"error":      err.Error(),
		})
	}
}
