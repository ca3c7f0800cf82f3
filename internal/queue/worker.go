package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ludoteca/catalog-api/internal/domain"
	"github.com/ludoteca/catalog-api/internal/repository"
	"go.uber.org/zap"
)

// Worker consumes batch-create jobs with bounded concurrency. Failed jobs
// are logged and dropped; redelivery is the queue collaborator's concern.
type Worker struct {
	queue       repository.JobQueue
	games       repository.BoardGameRepository
	concurrency int
	logger      *zap.Logger
}

func NewWorker(
	jobQueue repository.JobQueue,
	games repository.BoardGameRepository,
	concurrency int,
	logger *zap.Logger,
) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{queue: jobQueue, games: games, concurrency: concurrency, logger: logger}
}

// Run blocks consuming jobs until ctx is cancelled. Call it in a goroutine.
func (w *Worker) Run(ctx context.Context) {
	sem := make(chan struct{}, w.concurrency)

	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := w.queue.Dequeue(ctx, BoardGameQueue, 2*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if payload == nil {
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		go func(body []byte) {
			defer func() { <-sem }()
			w.process(ctx, body)
		}(payload)
	}
}

func (w *Worker) process(ctx context.Context, payload []byte) {
	var job BatchCreateJob
	if err := json.Unmarshal(payload, &job); err != nil {
		w.logger.Error("malformed batch job", zap.Error(err))
		return
	}

	games := make([]*domain.BoardGame, len(job.Games))
	for i, g := range job.Games {
		var mechanics []byte
		if len(g.Mechanics) > 0 {
			mechanics, _ = json.Marshal(g.Mechanics)
		}
		games[i] = &domain.BoardGame{
			Name:        g.Name,
			Description: g.Description,
			Complexity:  g.Complexity,
			MinAge:      g.MinAge,
			PlayTime:    g.PlayTime,
			Year:        g.Year,
			Mechanics:   mechanics,
			OwnerID:     job.OwnerID,
		}
	}

	if err := w.games.CreateMany(ctx, games); err != nil {
		w.logger.Error("batch insert failed",
			zap.Uint("ownerId", job.OwnerID), zap.Int("games", len(games)), zap.Error(err))
		return
	}

	w.logger.Info("batch insert complete",
		zap.Uint("ownerId", job.OwnerID), zap.Int("games", len(games)))
}
