package internal

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/helios/config"
	"github.com/vadiminshakov/helios/internal/clients"
	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/funding"
	"github.com/vadiminshakov/helios/internal/metrics"
	"github.com/vadiminshakov/helios/internal/scheduler"
	"github.com/vadiminshakov/helios/internal/session"
	"github.com/vadiminshakov/helios/internal/storage/balancesnapshots"
	"github.com/vadiminshakov/helios/internal/storage/sessionstate"
	"github.com/vadiminshakov/helios/internal/storage/widgetfeed"
	"github.com/vadiminshakov/helios/internal/web"
	"github.com/vadiminshakov/helios/internal/widget"
)

const (
	syncTimeout = 10 * time.Second

	snapshotReasonStartup  = "startup"
	snapshotReasonSchedule = "schedule"
)

type snapshotStore interface {
	Append(snapshot domain.BalanceSnapshot) (uint64, error)
	SnapshotsAfter(index uint64) ([]domain.BalanceSnapshotRecord, error)
	Close() error
}

// Dashboard one investor's live dashboard: session, widgets, web UI and background jobs.
type Dashboard struct {
	conf   config.Config
	logger *zap.Logger

	fetcher   clients.AccountFetcher
	closer    io.Closer
	snapshots snapshotStore

	Session *session.Session
	Feed    *widgetfeed.Feed
	Board   *widget.Board
	Server  *web.Server

	sched    *scheduler.Scheduler
	consumer *funding.KafkaConsumer
	cron     *cron.Cron
}

// NewDashboard wires a dashboard from configuration.
func NewDashboard(conf config.Config, logger *zap.Logger) (*Dashboard, error) {
	fetcher, closer, err := NewAccountFetcher(conf.Backend, logger)
	if err != nil {
		return nil, err
	}

	store, err := balancesnapshots.NewWALStore(conf.WALDir)
	if err != nil {
		_ = closer.Close()
		return nil, errors.Wrap(err, "failed to open balance snapshot store")
	}

	state, err := sessionstate.NewStore(conf.StateDir, conf.Backend.UserID)
	if err != nil {
		_ = store.Close()
		_ = closer.Close()
		return nil, errors.Wrap(err, "failed to open session state store")
	}

	d, err := newDashboard(conf, fetcher, closer, store, state, scheduler.RealClock{}, logger)
	if err != nil {
		_ = store.Close()
		_ = closer.Close()
		return nil, err
	}

	if conf.Kafka.Enabled() {
		d.consumer, err = funding.NewKafkaConsumer(conf.Kafka.Brokers, conf.Kafka.Topic, conf.Kafka.GroupID, d.Session, logger)
		if err != nil {
			_ = d.Close()
			return nil, errors.Wrap(err, "failed to create funding consumer")
		}
	}

	return d, nil
}

func newDashboard(
	conf config.Config,
	fetcher clients.AccountFetcher,
	closer io.Closer,
	store snapshotStore,
	state session.StateStore,
	clock scheduler.Clock,
	logger *zap.Logger,
) (*Dashboard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if closer == nil {
		closer = noopCloser{}
	}

	sched := scheduler.New(clock, logger)
	opts := []session.Option{session.WithSnapshots(store), session.WithClock(sched.Now)}
	if state != nil {
		opts = append(opts, session.WithState(state))
	}
	sess := session.New(domain.NewAccount(0, 0, 0, 0, "", domain.AccountStatusPending), conf.DocumentsCompleted, logger, opts...)
	feed := widgetfeed.New(conf.FeedCapacity)

	board, err := widget.NewBoard(widget.BoardConfig{
		Intervals: conf.WidgetIntervals,
		Period:    conf.Period,
		View:      conf.View,
	}, sess, sched, feed, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create widget board")
	}

	d := &Dashboard{
		conf:      conf,
		logger:    logger,
		fetcher:   fetcher,
		closer:    closer,
		snapshots: store,
		Session:   sess,
		Feed:      feed,
		Board:     board,
		Server:    web.NewServer(conf.Web.Addr, store, feed, board, sess, logger),
		sched:     sched,
		cron:      cron.New(),
	}

	if _, err := d.cron.AddFunc(conf.Backend.SyncSchedule, d.syncJob); err != nil {
		return nil, errors.Wrap(err, "failed to register sync job")
	}
	if _, err := d.cron.AddFunc(conf.SnapshotSchedule, d.snapshotJob); err != nil {
		return nil, errors.Wrap(err, "failed to register snapshot job")
	}

	return d, nil
}

// Sync pulls the account from the backend into the session.
func (d *Dashboard) Sync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	start := time.Now()
	acct, err := d.fetcher.FetchAccount(ctx)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.BackendSyncDuration.WithLabelValues(d.fetcher.Name(), result).Observe(time.Since(start).Seconds())
	if err != nil {
		return errors.Wrapf(err, "failed to sync account from %s", d.fetcher.Name())
	}

	d.Session.Update(acct)
	return nil
}

// Snapshot records the current balance in the history store.
func (d *Dashboard) Snapshot(reason string) error {
	snap := domain.NewBalanceSnapshot(d.sched.Now(), d.Session.Account(), reason)
	if _, err := d.snapshots.Append(snap); err != nil {
		return errors.Wrap(err, "failed to append balance snapshot")
	}
	return nil
}

// History returns every stored balance snapshot.
func (d *Dashboard) History() ([]domain.BalanceSnapshotRecord, error) {
	return d.snapshots.SnapshotsAfter(0)
}

// Run syncs once, then serves the board, web UI, funding consumer and cron jobs until ctx is done.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := d.Sync(ctx); err != nil {
		// widgets show the empty variant until the next scheduled sync succeeds
		d.logger.Error("initial account sync failed", zap.Error(err))
	}
	if err := d.Snapshot(snapshotReasonStartup); err != nil {
		d.logger.Warn("failed to record startup snapshot", zap.Error(err))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.Board.Run(ctx)
	})

	g.Go(func() error {
		if len(d.conf.Web.TLSDomains) > 0 {
			return d.Server.StartWithAutoTLS(ctx, d.conf.Web.TLSDomains, d.conf.Web.CertCache)
		}
		return d.Server.Start(ctx)
	})

	if d.consumer != nil {
		g.Go(func() error {
			return d.consumer.Run(ctx)
		})
	}

	g.Go(func() error {
		d.cron.Start()
		d.logger.Info("background jobs started",
			zap.String("sync", d.conf.Backend.SyncSchedule),
			zap.String("snapshot", d.conf.SnapshotSchedule))
		<-ctx.Done()
		<-d.cron.Stop().Done()
		return nil
	})

	d.logger.Info("dashboard started",
		zap.String("backend", d.fetcher.Name()),
		zap.String("addr", d.conf.Web.Addr),
		zap.Bool("funding_consumer", d.consumer != nil))

	return g.Wait()
}

// Close releases the snapshot store and backend connections.
func (d *Dashboard) Close() error {
	var errs []error
	if err := d.snapshots.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.closer.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Errorf("close dashboard: %v", errs)
	}
	return nil
}

func (d *Dashboard) syncJob() {
	if err := d.Sync(context.Background()); err != nil {
		d.logger.Warn("scheduled account sync failed", zap.Error(err))
	}
}

func (d *Dashboard) snapshotJob() {
	if err := d.Snapshot(snapshotReasonSchedule); err != nil {
		d.logger.Warn("scheduled balance snapshot failed", zap.Error(err))
	}
}
