package ports

import (
	"context"
	"time"

	"aidigest/internal/domain"
)

// SourceAdapter pulls raw content from one external origin. Implementations
// must honor ctx cancellation promptly and must not retry internally; retry
// policy belongs to the retrieval coordinator. Failures are surfaced as
// typed errors (domain.ErrUnavailable, ErrRateLimited, ErrMalformed), never
// as an empty success.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawItem, error)
}

// ModelClient is the single operation the analysis core needs from the
// generative model provider. schemaHint describes the expected JSON shape;
// the deadline rides on ctx.
type ModelClient interface {
	Complete(ctx context.Context, prompt, schemaHint string) (string, error)
}

// ReportSender delivers the rendered run report to its recipients.
type ReportSender interface {
	Send(ctx context.Context, subject, htmlBody, textBody string) error
}

// Notifier streams a short digest to a side channel (Telegram, etc.).
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
