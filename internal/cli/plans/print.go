package plans

import (
	"fmt"
	"time"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/reconcile"
)

func title(titles map[string]string, id string) string {
	if t, ok := titles[id]; ok {
		return t
	}
	return cli.ShortID(id)
}

func printPlan(plan models.DayPlan, titles map[string]string, loc *time.Location) {
	fmt.Printf("Plan for %s\n\n", plan.Date)
	if len(plan.Suggestions) == 0 {
		fmt.Println(cli.MutedStyle.Render("No suggestions."))
	} else {
		rows := make([][]string, 0, len(plan.Suggestions))
		for _, s := range plan.Chronological() {
			block := ""
			if s.IsSplit() {
				block = fmt.Sprintf("%d/%d", s.BlockIndex, s.TotalBlocks)
			}
			rows = append(rows, []string{
				s.Start.In(loc).Format("15:04") + "-" + s.End.In(loc).Format("15:04"),
				title(titles, s.TaskID),
				cli.FormatDuration(s.Duration()),
				block,
				string(s.EnergySource),
				string(s.DurationSource),
			})
		}
		fmt.Print(cli.RenderTable([]string{"TIME", "TASK", "LENGTH", "BLOCK", "ENERGY", "ESTIMATE"}, rows))
	}

	if len(plan.Residual) > 0 {
		fmt.Println()
		fmt.Println(cli.WarningStyle.Render("Not fully scheduled:"))
		for _, r := range plan.Residual {
			fmt.Printf("  %s: %s (%s of %s left)\n", title(titles, r.TaskID), r.Reason,
				cli.FormatDuration(r.CarryOver), cli.FormatDuration(r.Estimated))
		}
	}
}

func printWeek(plan models.WeeklyPlan, titles map[string]string) {
	fmt.Printf("Week of %s\n", plan.Start)
	for _, d := range plan.Days {
		header := fmt.Sprintf("\n%s  %s of %s", d.Date, cli.FormatDuration(d.Used), cli.FormatDuration(d.Capacity))
		if d.OverCommitted {
			header += "  " + cli.WarningStyle.Render("over-committed")
		}
		fmt.Println(header)
		if len(d.Assignments) == 0 {
			fmt.Println("  " + cli.MutedStyle.Render("nothing assigned"))
			continue
		}
		for _, a := range d.Assignments {
			line := fmt.Sprintf("  %-40s %6s", title(titles, a.TaskID), cli.FormatDuration(a.Duration))
			if a.Pinned {
				line += "  due"
			}
			if a.CarryOver > 0 {
				line += fmt.Sprintf("  (%s carried over)", cli.FormatDuration(a.CarryOver))
			}
			fmt.Println(line)
		}
	}
	if len(plan.Unassigned) > 0 {
		fmt.Println()
		fmt.Println(cli.WarningStyle.Render("Unassigned:"))
		for _, r := range plan.Unassigned {
			fmt.Printf("  %s: %s (%s)\n", title(titles, r.TaskID), r.Reason, cli.FormatDuration(r.CarryOver))
		}
	}
}

func printReconcile(res reconcile.Result, titles map[string]string, loc *time.Location) {
	if res.Empty() && len(res.Failures) == 0 {
		fmt.Println("Calendar and tasks are in sync.")
		return
	}
	for _, tr := range res.Transitions {
		fmt.Printf("  %s: %s -> %s (%s)\n", title(titles, tr.TaskID), tr.From, tr.To, tr.Reason)
	}
	for _, mv := range res.Moves {
		fmt.Printf("  %s moved: %s -> %s\n", title(titles, mv.TaskID),
			cli.FormatSpan(mv.OldStart, mv.OldEnd, loc), cli.FormatSpan(mv.NewStart, mv.NewEnd, loc))
	}
	for _, cf := range res.Conflicts {
		fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("  %s conflicts with %d event(s) at %s",
			title(titles, cf.TaskID), len(cf.OverlappingIDs), cli.FormatSpan(cf.Start, cf.End, loc))))
	}
	for _, f := range res.Failures {
		fmt.Println(cli.WarningStyle.Render("  " + f.Error()))
	}
}
