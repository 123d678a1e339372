package cron

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/services"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/meinhoongagan/trucktrack/utils"
	"github.com/robfig/cron/v3"
)

const (
	purgeSpec    = "*/10 * * * *"
	sweepSpec    = "* * * * *"
	reminderSpec = "0 18 * * *"

	jobTimeout = 2 * time.Minute
)

// Config wires the scheduled jobs. MemoryOTPs is nil when codes live in
// Redis, which expires them itself.
type Config struct {
	Store      storage.Store
	Identity   *services.IdentityService
	MemoryOTPs *services.MemoryOTPStore
	Mailer     utils.Mailer
	StaleAfter time.Duration
	Location   *time.Location
	Log        logging.Logger
}

// Scheduler runs the housekeeping and reminder jobs.
type Scheduler struct {
	cfg Config
	c   *cron.Cron
	now func() time.Time
}

func NewScheduler(cfg Config) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		cfg: cfg,
		c:   cron.New(cron.WithLocation(cfg.Location)),
		now: time.Now,
	}
}

type job struct {
	spec string
	name string
	run  func(context.Context)
}

// Start registers every job and starts the scheduler.
func (s *Scheduler) Start() error {
	jobs := []job{
		{purgeSpec, "purge stale registrations", s.purgeStaleUsers},
		{reminderSpec, "driver reminders", func(ctx context.Context) { _, _ = s.SendDriverReminders(ctx) }},
	}
	if s.cfg.MemoryOTPs != nil {
		jobs = append(jobs, job{sweepSpec, "sweep expired otps", s.sweepOTPs})
	}

	for _, j := range jobs {
		run := j.run
		if _, err := s.c.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			run(ctx)
		}); err != nil {
			return fmt.Errorf("add cron job %q: %w", j.name, err)
		}
	}

	s.c.Start()
	s.cfg.Log.Info(context.Background(), "cron scheduler started", "jobs", len(jobs))
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

func (s *Scheduler) purgeStaleUsers(ctx context.Context) {
	n, err := s.cfg.Identity.PurgeStaleRegistrations(ctx, s.cfg.StaleAfter)
	if err != nil {
		s.cfg.Log.Error(ctx, "purge stale registrations", "err", err)
		return
	}
	if n > 0 {
		s.cfg.Log.Info(ctx, "purged stale registrations", "count", n)
	}
}

func (s *Scheduler) sweepOTPs(ctx context.Context) {
	if n := s.cfg.MemoryOTPs.Sweep(s.now()); n > 0 {
		s.cfg.Log.Info(ctx, "swept expired otps", "count", n)
	}
}

// SendDriverReminders emails every driver with an address a summary of
// their committed trips for tomorrow. It returns how many emails went out.
func (s *Scheduler) SendDriverReminders(ctx context.Context) (int, error) {
	tomorrow := utils.Today(s.now().AddDate(0, 0, 1), s.cfg.Location)
	trips, err := s.cfg.Store.ListCommittedTrips(ctx, tomorrow)
	if err != nil {
		s.cfg.Log.Error(ctx, "load trips for reminders", "date", tomorrow, "err", err)
		return 0, err
	}

	byDriver := map[uint][]models.Trip{}
	drivers := map[uint]*models.Driver{}
	for _, t := range trips {
		if t.Driver == nil || t.Driver.Email == "" {
			continue
		}
		byDriver[t.Driver.ID] = append(byDriver[t.Driver.ID], t)
		drivers[t.Driver.ID] = t.Driver
	}

	ids := make([]uint, 0, len(drivers))
	for id := range drivers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sent := 0
	for _, id := range ids {
		d := drivers[id]
		subject, body := reminderEmail(d, tomorrow, byDriver[id])
		if err := s.cfg.Mailer.SendEmail(ctx, d.Email, subject, body); err != nil {
			s.cfg.Log.Warn(ctx, "driver reminder failed", "driver_id", id, "err", err)
			continue
		}
		sent++
	}
	s.cfg.Log.Info(ctx, "driver reminders sent", "date", tomorrow, "count", sent)
	return sent, nil
}

// reminderEmail constructs the reminder for one driver. Stored text is
// escaped before it goes into the HTML body.
func reminderEmail(d *models.Driver, date string, trips []models.Trip) (string, string) {
	var items strings.Builder
	for _, t := range trips {
		fmt.Fprintf(&items, "<li><strong>%s</strong> to <strong>%s</strong> (trip #%d, %s), estimated arrival %s</li>",
			html.EscapeString(t.Origin), html.EscapeString(t.Destination), t.ID,
			html.EscapeString(string(t.Status)), html.EscapeString(t.EstimatedArrivalTime))
	}

	subject := fmt.Sprintf("Reminder: %d trip(s) scheduled for %s", len(trips), date)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are scheduled for the following trips on %s:</p>
		<ul>%s</ul>
		<p>Trips leave at 09:00. Contact dispatch if anything has changed.</p>
		<p>Your TruckTrack Team</p>
	`, html.EscapeString(d.Name), date, items.String())
	return subject, body
}
