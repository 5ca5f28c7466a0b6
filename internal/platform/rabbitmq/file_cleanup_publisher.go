package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// FileCleanupJob asks the worker to remove a stale storage object.
type FileCleanupJob struct {
	Path string `json:"path"`
}

type FileCleanupPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewFileCleanupPublisher(conn *amqp.Connection, queueName string) *FileCleanupPublisher {
	return &FileCleanupPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *FileCleanupPublisher) PublishFileCleanup(ctx context.Context, path string) error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(FileCleanupJob{Path: path})
	if err != nil {
		return fmt.Errorf("marshal file cleanup payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish file cleanup failed: %w", err)
	}
	return nil
}
