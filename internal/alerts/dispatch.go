package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AngelCh415/leadintel/internal/models"
	"github.com/AngelCh415/leadintel/internal/utils"
)

// ErrNoSink: la acción es de un tipo sin sink configurado.
var ErrNoSink = errors.New("alerts: no sink configured for action")

// Submitter es lo único que el motor necesita para notificar.
type Submitter interface {
	Submit(ctx context.Context, a models.Alert, act Action) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, a models.Alert, act EmailAction) error
}

type SlackSender interface {
	SendSlack(ctx context.Context, a models.Alert, act SlackAction) error
}

type WebhookSender interface {
	SendWebhook(ctx context.Context, a models.Alert, act WebhookAction) error
}

type DashboardSender interface {
	Publish(ctx context.Context, a models.Alert) error
}

// FailureFunc se llama cuando una acción agota sus reintentos.
type FailureFunc func(a models.Alert, act Action, err error)

// Dispatcher enruta cada acción a su sink y es dueño de la política de reintentos.
type Dispatcher struct {
	email     EmailSender
	slack     SlackSender
	webhook   WebhookSender
	dashboard DashboardSender
	backoff   utils.Backoff
	onFailure FailureFunc
}

type DispatcherOption func(*Dispatcher)

func WithEmail(s EmailSender) DispatcherOption         { return func(d *Dispatcher) { d.email = s } }
func WithSlack(s SlackSender) DispatcherOption         { return func(d *Dispatcher) { d.slack = s } }
func WithWebhook(s WebhookSender) DispatcherOption     { return func(d *Dispatcher) { d.webhook = s } }
func WithDashboard(s DashboardSender) DispatcherOption { return func(d *Dispatcher) { d.dashboard = s } }

func WithBackoff(b utils.Backoff) DispatcherOption {
	return func(d *Dispatcher) { d.backoff = b }
}

func WithFailureFunc(f FailureFunc) DispatcherOption {
	return func(d *Dispatcher) { d.onFailure = f }
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		dashboard: DashboardSink{},
		backoff:   utils.NewBackoff(200*time.Millisecond, 2).WithJitter(100 * time.Millisecond),
		onFailure: func(models.Alert, Action, error) {},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Submit reintenta errores transitorios; un sink ausente falla sin reintentar.
func (d *Dispatcher) Submit(ctx context.Context, a models.Alert, act Action) error {
	var permanent error
	err := d.backoff.Do(ctx, func(int) error {
		err := d.send(ctx, a, act)
		if err != nil && (errors.Is(err, ErrNoSink) || !utils.Retryable(err)) {
			permanent = err
			return nil
		}
		return err
	})
	if err == nil {
		err = permanent
	}
	if err != nil {
		d.onFailure(a, act, err)
	}
	return err
}

func (d *Dispatcher) send(ctx context.Context, a models.Alert, act Action) error {
	switch act := act.(type) {
	case EmailAction:
		if d.email == nil {
			return fmt.Errorf("%w: %s", ErrNoSink, act.Kind())
		}
		return d.email.SendEmail(ctx, a, act)
	case SlackAction:
		if d.slack == nil {
			return fmt.Errorf("%w: %s", ErrNoSink, act.Kind())
		}
		return d.slack.SendSlack(ctx, a, act)
	case WebhookAction:
		if d.webhook == nil {
			return fmt.Errorf("%w: %s", ErrNoSink, act.Kind())
		}
		return d.webhook.SendWebhook(ctx, a, act)
	case DashboardAction:
		if d.dashboard == nil {
			return nil
		}
		return d.dashboard.Publish(ctx, a)
	case nil:
		return fmt.Errorf("%w: nil action", ErrNoSink)
	}
	return fmt.Errorf("%w: %T", ErrNoSink, act)
}

// Queue desacopla el envío del ingest: Submit encola y un worker despacha.
type Queue struct {
	next Submitter
	log  *slog.Logger
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type job struct {
	alert  models.Alert
	action Action
}

func NewQueue(next Submitter, size int, log *slog.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &Queue{next: next, log: log, jobs: make(chan job, size)}
}

func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for j := range q.jobs {
			if err := q.next.Submit(ctx, j.alert, j.action); err != nil {
				q.log.Warn("alert action failed",
					slog.String("alert_id", j.alert.ID),
					slog.String("action", string(j.action.Kind())),
					slog.String("err", err.Error()))
			}
		}
	}()
}

// Submit no bloquea; con la cola llena la acción se descarta con error.
func (q *Queue) Submit(_ context.Context, a models.Alert, act Action) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errors.New("alerts: notification queue stopped")
	}
	select {
	case q.jobs <- job{alert: a, action: act}:
		return nil
	default:
		return errors.New("alerts: notification queue full")
	}
}

// Stop cierra la cola y espera a que se vacíe.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

var (
	_ Submitter = (*Dispatcher)(nil)
	_ Submitter = (*Queue)(nil)
)
