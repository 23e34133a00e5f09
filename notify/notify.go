// Package notify hands freshly issued temporary passwords to the channel that
// delivers them to the account owner.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// TemporaryPassword is one delivery request. Temporal is plaintext.
type TemporaryPassword struct {
	UsuarioID int       `json:"idUsuario"`
	Correo    string    `json:"correo"`
	Temporal  string    `json:"passwordTemporal"`
	Emitida   time.Time `json:"emitida"`
}

// LogValue keeps the plaintext out of log output.
func (t TemporaryPassword) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("usuario_id", t.UsuarioID),
		slog.String("correo", t.Correo),
		slog.Time("emitida", t.Emitida),
	)
}

// Dispatcher delivers temporary passwords.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg TemporaryPassword) error
}

// RedisDispatcher pushes JSON messages onto a Redis list consumed by the mail worker.
type RedisDispatcher struct {
	client *redis.Client
	queue  string
}

// NewRedisDispatcher creates a RedisDispatcher writing to queue.
func NewRedisDispatcher(client *redis.Client, queue string) *RedisDispatcher {
	return &RedisDispatcher{client: client, queue: queue}
}

// Dispatch LPUSHes msg onto the queue; the worker pops from the other end.
func (d *RedisDispatcher) Dispatch(ctx context.Context, msg TemporaryPassword) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return oops.Code("NOTIFY_ENCODE_FAILED").Wrap(err)
	}
	if err := d.client.LPush(ctx, d.queue, payload).Err(); err != nil {
		return oops.Code("NOTIFY_QUEUE_FAILED").
			With("queue", d.queue).
			With("usuario_id", msg.UsuarioID).
			Wrap(err)
	}
	return nil
}

// LogDispatcher only records that a delivery would have happened. It is meant
// for local development where no mail worker runs.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the delivery request without the plaintext.
func (d *LogDispatcher) Dispatch(ctx context.Context, msg TemporaryPassword) error {
	d.logger.InfoContext(ctx, "temporary password ready for delivery", "delivery", msg)
	return nil
}
