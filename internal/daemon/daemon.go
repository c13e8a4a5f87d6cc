package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"focusd/internal/api"
	"focusd/internal/config"
	"focusd/internal/export"
	"focusd/internal/models"
	"focusd/internal/source"
	"focusd/internal/stats"
	"focusd/internal/store"
	"focusd/internal/tracker"
)

// persistMsg is one unit of work for the writer goroutine: exactly one of
// the two fields is set.
type persistMsg struct {
	session *models.Session
	sw      *models.ContextSwitch
}

// Daemon wires the polling loop, the periodic flush loop, and the single
// database writer together around one shared tracker. Persistence I/O never
// happens under the tracker lock.
type Daemon struct {
	cfg     *config.Config
	tracker *tracker.Tracker
	store   *store.Store
	src     source.Source

	queue chan persistMsg
	cron  *cron.Cron
}

func New(cfg *config.Config, tr *tracker.Tracker, st *store.Store, src source.Source) *Daemon {
	return &Daemon{
		cfg:     cfg,
		tracker: tr,
		store:   st,
		src:     src,
		queue:   make(chan persistMsg, 256),
	}
}

// Run blocks until ctx is cancelled, then flushes the final open session and
// all buffered data synchronously before returning.
func (d *Daemon) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	writerDone := make(chan struct{})
	go d.writer(writerDone)

	wg.Add(2)
	go func() {
		defer wg.Done()
		d.pollLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		d.flushLoop(ctx)
	}()

	d.startScheduler()

	var server *http.Server
	if d.cfg.ListenAddr != "" {
		handler := api.NewHandler(d.cfg, d.store, d.tracker)
		mux := http.NewServeMux()
		handler.RegisterRoutes(mux)
		server = &http.Server{
			Addr:         d.cfg.ListenAddr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			slog.Info("stats API listening", "addr", d.cfg.ListenAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("stats API error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down tracking")

	wg.Wait()
	if d.cron != nil {
		// Wait for any in-flight summary job; it touches the queue.
		<-d.cron.Stop().Done()
	}
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}

	// Final capture: close the open session and push everything left.
	d.tracker.EndCurrentSession()
	d.flush()
	close(d.queue)
	<-writerDone

	slog.Info("tracking stopped")
	return nil
}

// pollLoop queries the window source once per tick and feeds the tracker.
// The tracker lock is only held inside Observe, never across the probe.
func (d *Daemon) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.TrackingInterval())
	defer ticker.Stop()

	ticks := 0
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		app, title, ok := d.src.Poll()
		if !ok {
			failures++
			if failures == 5 || failures%50 == 0 {
				slog.Warn("could not read active window", "consecutive_failures", failures)
			}
			continue
		}
		failures = 0
		d.tracker.Observe(app, title)

		ticks++
		if ticks%300 == 0 {
			st := d.tracker.Snapshot()
			slog.Debug("tracking",
				"app", app,
				"buffered_sessions", st.BufferedSessions,
				"buffered_switches", st.BufferedSwitches,
				"current_duration", st.CurrentDuration)
		}
	}
}

// flushLoop periodically drains the tracker buffers onto the writer queue.
func (d *Daemon) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.SaveInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.flush()
		}
	}
}

func (d *Daemon) flush() {
	sessions := d.tracker.TakeCompletedSessions()
	switches := d.tracker.TakeContextSwitches()
	for i := range sessions {
		d.queue <- persistMsg{session: &sessions[i]}
	}
	for i := range switches {
		d.queue <- persistMsg{sw: &switches[i]}
	}
	if len(sessions) > 0 || len(switches) > 0 {
		slog.Info("flushed tracker buffers", "sessions", len(sessions), "switches", len(switches))
	}
}

// writer is the single consumer of the persistence queue. A failed write is
// retried once before being dropped with an error log.
func (d *Daemon) writer(done chan struct{}) {
	defer close(done)

	for msg := range d.queue {
		var err error
		for attempt := 0; attempt < 2; attempt++ {
			if msg.session != nil {
				err = d.store.SaveSession(msg.session)
			} else {
				err = d.store.SaveSwitch(msg.sw)
			}
			if err == nil {
				break
			}
		}
		if err != nil {
			if msg.session != nil {
				slog.Error("failed to save session", "app", msg.session.AppName, "error", err)
			} else {
				slog.Error("failed to save context switch", "from", msg.sw.FromApp, "to", msg.sw.ToApp, "error", err)
			}
		}
	}
}

// startScheduler installs the end-of-day summary job. An invalid cron
// expression downgrades to a 24h ticker, matching the configured interval as
// closely as possible.
func (d *Daemon) startScheduler() {
	loc := d.cfg.GetTimezone()
	d.cron = cron.New(cron.WithLocation(loc))

	_, err := d.cron.AddFunc(d.cfg.ReportSchedule, d.endOfDaySummary)
	if err != nil {
		slog.Error("invalid report schedule, falling back to 24h ticker", "schedule", d.cfg.ReportSchedule, "error", err)
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				d.endOfDaySummary()
			}
		}()
		return
	}

	slog.Info("scheduled daily summary", "schedule", d.cfg.ReportSchedule, "timezone", loc.String())
	d.cron.Start()
}

func (d *Daemon) endOfDaySummary() {
	// Push anything pending so the summary sees today's data.
	d.flush()

	agg := stats.New(d.store, d.cfg.DeepFocusThreshold())
	today := time.Now().UTC()
	ds, err := agg.DailyStats(today)
	if err != nil {
		slog.Error("daily summary failed", "error", err)
		return
	}
	slog.Info("daily summary",
		"date", today.Format("2006-01-02"),
		"focus_time", ds.TotalFocusTime.String(),
		"distraction_time", ds.TotalDistractionTime.String(),
		"context_switches", ds.ContextSwitches,
		"deep_focus_sessions", ds.DeepFocusSessions,
		"focus_efficiency", ds.FocusEfficiency)

	if d.cfg.Export.Auto {
		path, err := export.Range(d.store, today, today, d.cfg.Export.Format, "", d.cfg.ExportPath())
		if err != nil {
			slog.Error("auto export failed", "error", err)
			return
		}
		slog.Info("auto export written", "path", path)
	}
}
