package outbox

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/sony/gobreaker"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/config"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

const (
	// PostgreSQL NOTIFY/LISTEN configuration
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	outboxChannelName            = "outbox_channel"

	// Event processing timeouts
	eventProcessTimeout     = 30 * time.Second
	batchProcessTimeout     = 60 * time.Second
	periodicProcessInterval = 90 * time.Second

	// Health check configuration
	healthCheckStaleThreshold = 5 * time.Minute

	// Batch processing limits
	maxEventsPerBatch = 100
)

// Relay listens for PostgreSQL NOTIFY signals on the outbox channel and
// publishes workflow notifications to RabbitMQ. Notification delivery is
// decoupled from the workflows: a transition commits its events with the
// entity write, and this relay drains them afterwards.
type Relay struct {
	db            *sql.DB
	publisher     ports.NotificationPublisher
	listener      *pq.Listener
	dbURL         string
	dbCB          *gobreaker.CircuitBreaker
	lastProcessed time.Time
	isHealthy     bool
}

// NewRelay creates a new outbox relay that listens for PostgreSQL notifications.
func NewRelay(db *sql.DB, dbURL string, publisher ports.NotificationPublisher) *Relay {
	dbCB := config.NewCircuitBreaker("Relay-PostgreSQL")

	return &Relay{
		db:            db,
		dbURL:         dbURL,
		publisher:     publisher,
		dbCB:          dbCB,
		lastProcessed: time.Now(),
		isHealthy:     true,
	}
}

// IsHealthy returns true if the relay process is alive and responding.
// Designed for liveness probes; an open circuit breaker is degraded but
// recoverable and should not kill the pod.
func (r *Relay) IsHealthy() bool {
	return r.isHealthy
}

// IsReady returns true if the relay can process events (for readiness probes).
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}
	if time.Since(r.lastProcessed) > healthCheckStaleThreshold {
		return false
	}
	return r.isHealthy
}

// Start begins listening for outbox notifications and processing events.
// This is a blocking call that runs until the context is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("outbox relay: listener error: %v", err)
		}
	}

	r.listener = pq.NewListener(r.dbURL, listenerMinReconnectInterval, listenerMaxReconnectInterval, reportProblem)
	defer r.listener.Close()

	if err := r.listener.Listen(outboxChannelName); err != nil {
		return err
	}

	log.Printf("outbox relay: listening on '%s' for notifications...", outboxChannelName)

	// Process any unprocessed events on startup (catch-up)
	if err := r.processUnprocessedEvents(ctx); err != nil {
		log.Printf("outbox relay: error processing startup backlog: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("outbox relay: shutting down...")
			return ctx.Err()

		case notification := <-r.listener.Notify:
			if notification == nil {
				log.Println("outbox relay: received nil notification (reconnecting...)")
				r.isHealthy = false
				continue
			}

			if err := r.processEventByID(ctx, notification.Extra); err != nil {
				log.Printf("outbox relay: error processing event %s: %v", notification.Extra, err)
			} else {
				r.lastProcessed = time.Now()
				r.isHealthy = true
			}

		case <-time.After(periodicProcessInterval):
			// Periodic ping to keep connection alive and catch any missed events
			go r.listener.Ping()

			if err := r.processUnprocessedEvents(ctx); err != nil {
				log.Printf("outbox relay: error in periodic processing: %v", err)
			} else {
				r.lastProcessed = time.Now()
			}
		}
	}
}

// processEventByID processes a single event by its ID.
func (r *Relay) processEventByID(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, eventProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		var n ports.Notification
		err = tx.QueryRowContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE id = $1 AND processed_at IS NULL
			FOR UPDATE SKIP LOCKED`, eventID).Scan(&n.ID, &n.Type, &n.Payload)

		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		if err := r.publisher.PublishNotification(ctx, n); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, n.ID); err != nil {
			return nil, err
		}

		return nil, tx.Commit()
	})
	return err
}

// processUnprocessedEvents processes all unprocessed events (catch-up/recovery).
func (r *Relay) processUnprocessedEvents(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE processed_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, maxEventsPerBatch)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var pending []ports.Notification
		for rows.Next() {
			var n ports.Notification
			if err := rows.Scan(&n.ID, &n.Type, &n.Payload); err != nil {
				return nil, err
			}
			pending = append(pending, n)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, n := range pending {
			if err := r.publisher.PublishNotification(ctx, n); err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, n.ID); err != nil {
				return nil, err
			}
		}

		if len(pending) > 0 {
			log.Printf("outbox relay: processed %d backlog events", len(pending))
		}

		return nil, tx.Commit()
	})
	return err
}
