package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"ponyfiction/internal/platform/rabbitmq"
	"ponyfiction/internal/storage"
)

var errMalformedJob = errors.New("malformed file cleanup job")

// FileCleanupWorker removes storage objects that are no longer referenced.
type FileCleanupWorker struct {
	conn      *amqp.Connection
	storage   storage.Storage
	queueName string
	logger    zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewFileCleanupWorker(conn *amqp.Connection, store storage.Storage, queueName string, logger zerolog.Logger) *FileCleanupWorker {
	return &FileCleanupWorker{
		conn:      conn,
		storage:   store,
		queueName: queueName,
		logger:    logger.With().Str("worker", "file_cleanup").Logger(),
	}
}

func (w *FileCleanupWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(8, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.dispatch(workerCtx, d)
			}
		}
	}()

	w.logger.Info().Str("queue", w.queueName).Msg("file cleanup worker started")
	return nil
}

func (w *FileCleanupWorker) dispatch(ctx context.Context, d amqp.Delivery) {
	err := w.Handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformedJob):
		w.logger.Warn().Err(err).Msg("drop file cleanup job")
		_ = d.Nack(false, false)
	default:
		// Retry once, then give up.
		w.logger.Error().Err(err).Bool("redelivered", d.Redelivered).Msg("file cleanup failed")
		_ = d.Nack(false, !d.Redelivered)
	}
}

// Handle processes a single job body.
func (w *FileCleanupWorker) Handle(ctx context.Context, body []byte) error {
	var job rabbitmq.FileCleanupJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", errMalformedJob, err)
	}
	if strings.TrimSpace(job.Path) == "" {
		return fmt.Errorf("%w: empty path", errMalformedJob)
	}
	if err := w.storage.Delete(ctx, job.Path); err != nil {
		return fmt.Errorf("delete %s: %w", job.Path, err)
	}
	w.logger.Debug().Str("path", job.Path).Msg("storage object removed")
	return nil
}

func (w *FileCleanupWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
