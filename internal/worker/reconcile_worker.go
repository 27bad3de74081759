package worker

import (
	"Mini_Drive/config"
	"Mini_Drive/internal/mq"
	"Mini_Drive/internal/repo"
	"Mini_Drive/internal/service"
	"Mini_Drive/internal/task"
	"Mini_Drive/model"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// publisher is the part of mq.Client the retry path needs.
type publisher interface {
	PublishRetry(ctx context.Context, body []byte, delay time.Duration) error
	PublishDLQ(ctx context.Context, body []byte) error
}

type dlqMessage struct {
	TaskID   string    `json:"task_id"`
	Attempt  int       `json:"attempt"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// RunReconcileWorker consumes reconcile tasks from RabbitMQ until ctx is done.
func RunReconcileWorker(ctx context.Context) error {
	client, err := mq.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	prefetch := config.AppConfig.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := client.Channel.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := client.Channel.Consume(mq.QueueTasks, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	concurrency := config.AppConfig.ReconcileWorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	limiter := newLimiter(config.AppConfig.ReconcileRate, config.AppConfig.ReconcileBurst)

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("reconcile worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleDelivery(ctx, client, limiter, d)
			}(delivery)
		}
	}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func handleDelivery(ctx context.Context, pub publisher, limiter *rate.Limiter, delivery amqp.Delivery) {
	switch handleMessage(ctx, pub, limiter, delivery.Body) {
	case outcomeRequeue:
		_ = delivery.Nack(false, true)
	default:
		_ = delivery.Ack(false)
	}
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
)

// handleMessage processes one message body and reports whether it should be acked or requeued.
func handleMessage(ctx context.Context, pub publisher, limiter *rate.Limiter, body []byte) outcome {
	var msg task.ReconcileMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.TaskID == "" {
		log.Printf("reconcile worker: invalid message: %v", err)
		return outcomeAck
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return outcomeRequeue
		}
	}

	err := task.ProcessReconcileTask(ctx, msg.TaskID)
	if err == nil {
		return outcomeAck
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return outcomeRequeue
	}
	if shouldRetry(err) {
		if err := scheduleRetry(ctx, pub, msg, err); err != nil {
			log.Printf("reconcile worker: retry schedule failed: %v", err)
			return outcomeRequeue
		}
		return outcomeAck
	}
	if err := markFailed(ctx, pub, msg, err); err != nil {
		log.Printf("reconcile worker: mark failed failed: %v", err)
		return outcomeRequeue
	}
	return outcomeAck
}

// shouldRetry treats missing tasks and malformed tasks as permanent.
func shouldRetry(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, service.ErrInvalidInput) {
		return false
	}
	return true
}

func scheduleRetry(ctx context.Context, pub publisher, msg task.ReconcileMessage, procErr error) error {
	maxRetry := config.AppConfig.ReconcileRetryMax
	if maxRetry < 0 {
		maxRetry = 0
	}
	nextAttempt := msg.Attempt + 1
	if maxRetry == 0 || nextAttempt > maxRetry {
		return markFailed(ctx, pub, msg, procErr)
	}

	delay := pickRetryDelay(nextAttempt, config.AppConfig.ReconcileRetryDelays)
	nextRetryAt := time.Now().Add(delay)
	if err := repo.Db.WithContext(ctx).Model(&model.ReconcileTask{}).
		Where("id = ?", msg.TaskID).
		Updates(map[string]interface{}{
			"status":        model.TaskRetrying,
			"error_msg":     procErr.Error(),
			"retry_count":   nextAttempt,
			"next_retry_at": &nextRetryAt,
		}).Error; err != nil {
		return err
	}

	msg.Attempt = nextAttempt
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return pub.PublishRetry(ctx, body, delay)
}

func markFailed(ctx context.Context, pub publisher, msg task.ReconcileMessage, procErr error) error {
	finishedAt := time.Now()
	if err := repo.Db.WithContext(ctx).Model(&model.ReconcileTask{}).
		Where("id = ?", msg.TaskID).
		Updates(map[string]interface{}{
			"status":      model.TaskFailed,
			"error_msg":   procErr.Error(),
			"finished_at": &finishedAt,
		}).Error; err != nil {
		return err
	}

	body, err := json.Marshal(dlqMessage{
		TaskID:   msg.TaskID,
		Attempt:  msg.Attempt,
		Error:    procErr.Error(),
		FailedAt: finishedAt,
	})
	if err != nil {
		return err
	}
	if err := pub.PublishDLQ(ctx, body); err != nil {
		log.Printf("reconcile worker: dlq publish failed: %v", err)
	}
	return nil
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
