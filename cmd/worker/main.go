package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/berryware/berryrag/internal/bootstrap"
	"github.com/berryware/berryrag/internal/queue"
	"github.com/berryware/berryrag/internal/storage"
	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/leaselock"
	"github.com/berryware/berryrag/pkg/logger"
	"github.com/berryware/berryrag/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Level:  util.GetEnvString("LOG_LEVEL", "info"),
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	s3Client := storage.NewS3Client(ctx)

	engine, pool, err := bootstrap.NewEngine(ctx, "pgx")
	if err != nil {
		logger.Fatal("Failed to build retrieval engine", "err", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	// Cross-process ingest serialization needs the database; without a
	// pool the singleflight inside the engine still covers one process.
	var locks *leaselock.Client
	if pool != nil {
		locks = leaselock.New(pool)
	}

	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := queue.QueueNames()
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	logger.Info("Listening for messages")

	concurrency := util.GetEnvInt("WORKER_CONCURRENCY", 2)
	if concurrency < 1 {
		concurrency = 1
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	// Prefetch matches the processing pool so the broker never hands
	// this worker more messages than it will run at once.
	err = consumerCh.Qos(concurrency, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	var workers errgroup.Group
	workers.SetLimit(concurrency)

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				workers.Go(func() error {
					startTime := time.Now()
					logger.Info("Received message", "queue", qm.queueName)

					var processingErr error
					switch qm.queueName {
					case queue.IngestQueue:
						processingErr = queue.ProcessIngestMessage(ctx, s3Client, engine, locks, ch, string(qm.msg.Body))
					case queue.CrawlQueue:
						processingErr = queue.ProcessCrawlMessage(ctx, s3Client, engine, ch, string(qm.msg.Body))
					case queue.DeleteQueue:
						processingErr = queue.ProcessDeleteMessage(ctx, s3Client, engine, ch, string(qm.msg.Body))
					}

					// On error send to retry or dead-letter, otherwise ack
					if processingErr != nil {
						logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
						handleProcessingError(consumerCh, qm.msg, qm.queueName)
					} else {
						if err := qm.msg.Ack(false); err != nil {
							logger.Error("Failed to ack message", "err", err)
						}
						logger.Info("Message processed successfully",
							"queue", qm.queueName,
							"duration_sec", time.Since(startTime).Seconds())
					}
					return nil
				})
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, waiting for in-flight messages")
	_ = workers.Wait()
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// After 10 retries the message goes to the dead-letter queue
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
