package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/dayfill/internal/estimator"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/reconcile"
	"github.com/julianstephens/dayfill/internal/scheduler"
)

func testConfig(t *testing.T) scheduler.Config {
	t.Helper()
	cfg, err := scheduler.ConfigFromSettings(models.Settings{
		WorkingHoursStart:  "09:00",
		WorkingHoursEnd:    "12:00",
		BufferMin:          10,
		MinimumSlotMin:     15,
		MatchEnergyToTasks: true,
		Timezone:           "UTC",
	})
	if err != nil {
		t.Fatalf("ConfigFromSettings failed: %v", err)
	}
	return cfg
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestScanDay(t *testing.T) {
	// Sunday evening before the scanned Monday.
	e := New(nil, nil, WithClock(fixedClock(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))))
	if _, err := e.Estimator().RecordCompletion("Work", 40*time.Minute); err != nil {
		t.Fatalf("RecordCompletion failed: %v", err)
	}

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	plan, err := e.ScanDay(DayInput{
		Date: monday,
		Busy: []models.Interval{{Start: monday.Add(10 * time.Hour), End: monday.Add(11 * time.Hour)}},
		Tasks: []models.Task{
			{ID: "approved", State: models.StateApproved, Priority: models.PriorityHigh},
			{ID: "report", State: models.StatePending, List: "Work", Priority: models.PriorityMedium},
			{ID: "urgent", State: models.StatePending, Notes: "[20m]", Priority: models.PriorityHigh},
		},
		Config: testConfig(t),
	})
	if err != nil {
		t.Fatalf("ScanDay failed: %v", err)
	}

	if len(plan.Suggestions) != 2 {
		t.Fatalf("suggestions = %+v", plan.Suggestions)
	}
	urgent, report := plan.Suggestions[0], plan.Suggestions[1]
	if urgent.TaskID != "urgent" || urgent.Start.Hour() != 9 || urgent.Duration() != 20*time.Minute {
		t.Errorf("urgent = %+v", urgent)
	}
	if urgent.DurationSource != models.DurationSourceHint {
		t.Errorf("urgent source = %s", urgent.DurationSource)
	}
	// 09:20-09:50 is left before the meeting; 40 minutes only fits after it.
	if report.TaskID != "report" || report.Start.Format("15:04") != "11:10" || report.DurationSource != models.DurationSourceList {
		t.Errorf("report = %+v", report)
	}
	if plan.Date != "2026-03-02" || plan.GeneratedAt.IsZero() {
		t.Errorf("plan header = %q %v", plan.Date, plan.GeneratedAt)
	}
}

func TestScanDay_NonWorkingDayReportsResidual(t *testing.T) {
	e := New(nil, nil, WithClock(fixedClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))))
	plan, err := e.ScanDay(DayInput{
		Date:   time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), // Saturday
		Tasks:  []models.Task{{ID: "a", State: models.StatePending}},
		Config: testConfig(t),
	})
	if err != nil {
		t.Fatalf("ScanDay failed: %v", err)
	}
	if len(plan.Suggestions) != 0 || len(plan.Residual) != 1 || plan.Residual[0].Reason != models.ResidualNoCapacity {
		t.Errorf("plan = %+v", plan)
	}
}

func TestScan_RejectsConcurrentScan(t *testing.T) {
	e := New(nil, nil)
	if err := e.begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	_, err := e.ScanDay(DayInput{Date: time.Now(), Config: testConfig(t)})
	if !errors.Is(err, ErrScanInProgress) {
		t.Errorf("ScanDay err = %v, want ErrScanInProgress", err)
	}
	_, err = e.ScanWeek(WeekInput{Date: time.Now(), Config: testConfig(t)})
	if !errors.Is(err, ErrScanInProgress) {
		t.Errorf("ScanWeek err = %v, want ErrScanInProgress", err)
	}

	e.end()
	if _, err := e.ScanDay(DayInput{Date: time.Now(), Config: testConfig(t)}); err != nil {
		t.Errorf("scan after release failed: %v", err)
	}
}

func TestScan_FailsWithoutDate(t *testing.T) {
	e := New(nil, nil)
	if _, err := e.ScanDay(DayInput{Config: testConfig(t)}); err == nil {
		t.Error("expected an error for a zero date")
	}
	// The failed scan must release the slot.
	if _, err := e.ScanDay(DayInput{Date: time.Now(), Config: testConfig(t)}); err != nil {
		t.Errorf("scan after failure: %v", err)
	}
}

func TestScanWeek(t *testing.T) {
	// Wednesday noon: Monday to Wednesday are over, Thursday and Friday remain.
	e := New(estimator.New(), nil, WithClock(fixedClock(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC))))
	thursday := time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC)

	plan, err := e.ScanWeek(WeekInput{
		Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Tasks: []models.Task{
			{ID: "due-thu", State: models.StatePending, DueDate: &thursday, Notes: "[2h]"},
			{ID: "loose", State: models.StatePending, Notes: "[2h]"},
			{ID: "done", State: models.StateCompleted},
		},
		Config: testConfig(t),
	})
	if err != nil {
		t.Fatalf("ScanWeek failed: %v", err)
	}

	if plan.Start != "2026-03-02" {
		t.Errorf("Start = %q", plan.Start)
	}
	if len(plan.Days) != 2 || plan.Days[0].Date != "2026-03-05" || plan.Days[1].Date != "2026-03-06" {
		t.Fatalf("days = %+v", plan.Days)
	}
	if len(plan.Days[0].Assignments) != 1 || plan.Days[0].Assignments[0].TaskID != "due-thu" {
		t.Errorf("thursday = %+v", plan.Days[0].Assignments)
	}
	if len(plan.Days[1].Assignments) != 1 || plan.Days[1].Assignments[0].TaskID != "loose" {
		t.Errorf("friday = %+v", plan.Days[1].Assignments)
	}
}

func TestReconcile_Throttled(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reg := reconcile.NewRegistry()
	if err := reg.Track(models.TrackedEvent{
		ID: "r1", TaskID: "t1", ExternalEventID: "e1",
		OriginalStart: ts, OriginalEnd: ts.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	e := New(nil, reg, WithReconcileInterval(5*time.Second), WithClock(func() time.Time { return ts }))
	states := map[string]models.TaskState{"t1": models.StateApproved}

	res, err := e.Reconcile(states, nil)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if len(res.Transitions) != 1 {
		t.Fatalf("transitions = %+v", res.Transitions)
	}

	ts = ts.Add(time.Second)
	if _, err := e.Reconcile(states, nil); !errors.Is(err, ErrThrottled) {
		t.Errorf("burst pass err = %v, want ErrThrottled", err)
	}

	ts = ts.Add(5 * time.Second)
	if _, err := e.Reconcile(states, nil); err != nil {
		t.Errorf("pass after interval: %v", err)
	}

	if res := e.ReconcileNow(states, nil); len(res.Failures) != 0 {
		t.Errorf("ReconcileNow failures = %+v", res.Failures)
	}
}
