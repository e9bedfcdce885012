package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"coinsort/internal/jobs"
	"coinsort/internal/logging"
	"coinsort/internal/notifications"
	"coinsort/internal/services/llm"
	"coinsort/internal/webhook"
)

// CategorySource reads the taxonomy and commits a chosen category upstream.
type CategorySource interface {
	Categories(ctx context.Context) (map[string]string, error)
	SetCategory(ctx context.Context, contentID string, splits []webhook.Transaction, categoryID string) error
}

// Classifier places one transaction into a taxonomy.
type Classifier interface {
	Classify(ctx context.Context, categories []string, destination, description string) (llm.Classification, error)
}

// Processor runs the classify-and-commit pipeline for accepted webhooks.
type Processor struct {
	registry   *jobs.Registry
	finance    CategorySource
	classifier Classifier
	notifier   notifications.Service
	logger     *slog.Logger
}

// NewProcessor wires the pipeline dependencies together.
func NewProcessor(registry *jobs.Registry, finance CategorySource, classifier Classifier, notifier notifications.Service, logger *slog.Logger) *Processor {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Processor{
		registry:   registry,
		finance:    finance,
		classifier: classifier,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "workflow"),
	}
}

// Process executes the pipeline for one job. On error the job stays in its
// last state; only a run that reaches the end marks the job finished.
func (p *Processor) Process(ctx context.Context, jobID uuid.UUID, item webhook.WorkItem) error {
	log := p.logger.With(logging.String(logging.FieldJobID, jobID.String()))

	if err := p.registry.SetInProgress(jobID); err != nil {
		return err
	}

	taxonomy, err := p.finance.Categories(ctx)
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}
	if len(taxonomy) == 0 {
		return fmt.Errorf("fetch categories: taxonomy is empty")
	}
	names := make([]string, 0, len(taxonomy))
	for name := range taxonomy {
		names = append(names, name)
	}
	sort.Strings(names)

	result, err := p.classifier.Classify(ctx, names, item.DestinationName, item.Description)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	job, ok := p.registry.Get(jobID)
	if !ok {
		return fmt.Errorf("classify: job %s disappeared", jobID)
	}
	data := job.Data
	data.Category = result.Category
	data.Prompt = result.Prompt
	data.Response = result.Response
	if err := p.registry.UpdateData(jobID, data); err != nil {
		return err
	}

	if result.Category == "" {
		log.Info("no category matched, skipping upstream commit",
			logging.String("destination", item.DestinationName),
		)
	} else {
		categoryID, ok := taxonomy[result.Category]
		if !ok {
			return fmt.Errorf("commit category: %q vanished from taxonomy", result.Category)
		}
		if err := p.finance.SetCategory(ctx, item.ContentID, item.Transactions, categoryID); err != nil {
			return fmt.Errorf("commit category: %w", err)
		}
		log.Info("category committed",
			logging.String("category", result.Category),
			logging.String("destination", item.DestinationName),
		)
	}

	if err := p.registry.SetFinished(jobID); err != nil {
		return err
	}
	if err := p.notifier.NotifyJobFinished(ctx, item.DestinationName, result.Category); err != nil {
		// Notification delivery is best effort.
		log.Warn("finish notification failed", logging.Error(err))
	}
	return nil
}
