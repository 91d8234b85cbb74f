package calendar

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/julianstephens/dayfill/internal/constants"
)

// taskProperty links an exported event back to its task.
const taskProperty = ical.ComponentProperty("X-DAYFILL-TASK")

// ExportItem is one accepted suggestion to write as a VEVENT.
type ExportItem struct {
	UID         string
	TaskID      string
	Title       string
	Notes       string
	Start       time.Time
	End         time.Time
	BlockIndex  int
	TotalBlocks int
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//" + constants.AppName + "//" + constants.Version + "//EN")
	return cal
}

func addItem(cal *ical.Calendar, it ExportItem, now time.Time) error {
	if it.UID == "" {
		return fmt.Errorf("export: task %s has no event uid", it.TaskID)
	}
	ev := cal.AddEvent(it.UID)
	ev.SetDtStampTime(now.UTC())
	ev.SetStartAt(it.Start.UTC())
	ev.SetEndAt(it.End.UTC())
	summary := it.Title
	if it.TotalBlocks > 1 {
		summary = fmt.Sprintf("%s (%d/%d)", it.Title, it.BlockIndex, it.TotalBlocks)
	}
	ev.SetSummary(summary)
	if it.Notes != "" {
		ev.SetDescription(it.Notes)
	}
	ev.AddProperty(taskProperty, it.TaskID)
	return nil
}

// Export writes items as an ICS calendar to w.
func Export(w io.Writer, items []ExportItem, now time.Time) error {
	cal := newCalendar()
	for _, it := range items {
		if err := addItem(cal, it, now); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// ExportFile writes items to path atomically, replacing its contents.
func ExportFile(path string, items []ExportItem, now time.Time) error {
	cal := newCalendar()
	for _, it := range items {
		if err := addItem(cal, it, now); err != nil {
			return err
		}
	}
	return writeAtomic(path, cal)
}

// MergeFile adds items to the calendar at path. Existing events keep their
// place unless an item carries the same UID, in which case the item wins.
// A missing file is treated as empty.
func MergeFile(path string, items []ExportItem, now time.Time) error {
	replaced := make(map[string]bool, len(items))
	for _, it := range items {
		replaced[it.UID] = true
	}

	cal := newCalendar()
	f, err := os.Open(path)
	switch {
	case err == nil:
		existing, perr := ical.ParseCalendar(f)
		f.Close()
		if perr != nil {
			return fmt.Errorf("parse export file: %w", perr)
		}
		for _, ev := range existing.Events() {
			if uid := ev.GetProperty(ical.ComponentPropertyUniqueId); uid != nil && replaced[uid.Value] {
				continue
			}
			cal.Components = append(cal.Components, ev)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("open export file: %w", err)
	}

	for _, it := range items {
		if err := addItem(cal, it, now); err != nil {
			return err
		}
	}
	return writeAtomic(path, cal)
}

func writeAtomic(path string, cal *ical.Calendar) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".dayfill-export-*.ics")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.WriteString(tmp, cal.Serialize()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
