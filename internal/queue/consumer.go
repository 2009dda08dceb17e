package queue

// This file contains the background consumer that drains the booking
// lifecycle queues, appends an audit line to logs/booking.log and
// triggers an inventory reconciliation for the affected showtime.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// InventorySyncer rebuilds a showtime's cached seat state from its
// active bookings.  It is implemented by the booking service.
type InventorySyncer interface {
	SyncInventory(ctx context.Context, showtimeID uint64) error
}

// StartBookingConsumer connects to RabbitMQ, declares both booking
// queues (durable) and starts consuming them.  Each message is appended
// to logs/booking.log and followed by a SyncInventory pass for the
// showtime it names, so any drift left behind by a partial failure is
// repaired shortly after the event.  The function runs a reconnect loop
// forever; processing errors are logged and the offending message is
// rejected without requeue so the consumer keeps operating.
func StartBookingConsumer(url string, syncer InventorySyncer, log *zap.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("booking consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, syncer, log); err != nil {
			log.Warn("booking consumer loop ended, reconnecting", zap.Error(err))
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, syncer InventorySyncer, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set QoS failed", zap.Error(err))
	}

	deliveries := make(chan amqp.Delivery)
	done := make(chan struct{})
	defer close(done)
	for _, name := range []string{QueueBookingConfirmed, QueueBookingCancelled} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go forwardDeliveries(msgs, deliveries, done)
	}

	closed := make(chan *amqp.Error, 1)
	ch.NotifyClose(closed)
	for {
		select {
		case d := <-deliveries:
			if err := handleMessage(d.RoutingKey, d.Body, syncer, log); err != nil {
				log.Warn("handle booking event failed", zap.String("queue", d.RoutingKey), zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		case err := <-closed:
			if err != nil {
				return err
			}
			return errors.New("channel closed")
		}
	}
}

// forwardDeliveries merges one queue's deliveries into out.  It stops
// when the source channel closes or done is closed, so a forwarder
// holding a delivery cannot outlive its consume loop.
func forwardDeliveries(msgs <-chan amqp.Delivery, out chan<- amqp.Delivery, done <-chan struct{}) {
	for d := range msgs {
		select {
		case out <- d:
		case <-done:
			return
		}
	}
}

func handleMessage(queueName string, body []byte, syncer InventorySyncer, log *zap.Logger) error {
	var line string
	var showtimeID uint64
	switch queueName {
	case QueueBookingConfirmed:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		showtimeID = ev.ShowtimeID
		line = fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | number=%d | user_id=%d | showtime_id=%d | total=%d cents | seats=[%s]\n",
			ev.ConfirmedAt, ev.BookingID, ev.BookingNumber, ev.UserID, ev.ShowtimeID, ev.TotalPriceCents, strings.Join(ev.Seats, ","))
	case QueueBookingCancelled:
		var ev BookingCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		showtimeID = ev.ShowtimeID
		action := "cancelled"
		if ev.Deleted {
			action = "deleted"
		}
		line = fmt.Sprintf("[%s] Booking %s | booking_id=%d | number=%d | user_id=%d | showtime_id=%d | seats=[%s]\n",
			ev.CancelledAt, action, ev.BookingID, ev.BookingNumber, ev.UserID, ev.ShowtimeID, strings.Join(ev.Seats, ","))
	default:
		return fmt.Errorf("unexpected queue %q", queueName)
	}

	if err := appendAuditLine(line); err != nil {
		return err
	}

	// Self-healing pass: rebuild the cached seat state from the booking
	// records after every lifecycle event.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := syncer.SyncInventory(ctx, showtimeID); err != nil {
		log.Warn("post-event inventory sync failed", zap.Uint64("showtime_id", showtimeID), zap.Error(err))
	}
	return nil
}

func appendAuditLine(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
