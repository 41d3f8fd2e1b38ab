package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/example/missionctl/internal/core/task"
	"github.com/example/missionctl/internal/ports/primary"
)

func okMark() string {
	return color.New(color.FgGreen).Sprint("✓")
}

// statusMark renders a colored status indicator for list output.
func statusMark(status string) string {
	switch status {
	case task.StatusQueued:
		return color.New(color.FgWhite).Sprint("○")
	case task.StatusClaimed, task.StatusRunning:
		return color.New(color.FgYellow).Sprint("◐")
	case task.StatusBlocked:
		return color.New(color.FgRed).Sprint("■")
	case task.StatusNeedsReview:
		return color.New(color.FgMagenta).Sprint("?")
	case task.StatusDone:
		return color.New(color.FgGreen).Sprint("●")
	case task.StatusFailed:
		return color.New(color.FgRed).Sprint("✗")
	case task.StatusCanceled:
		return color.New(color.FgHiBlack).Sprint("–")
	default:
		return " "
	}
}

func priorityMark(priority string) string {
	switch priority {
	case task.PriorityUrgent:
		return color.New(color.FgRed, color.Bold).Sprint("URGENT")
	case task.PriorityHigh:
		return color.New(color.FgYellow).Sprint("high")
	case task.PriorityLow:
		return color.New(color.FgHiBlack).Sprint("low")
	default:
		return priority
	}
}

func printTaskLine(t *primary.TaskOverview) {
	fmt.Printf("%s %s: %s [%s/%s]\n",
		statusMark(t.Status), task.ShortID(t.ID), t.Title, t.Status, priorityMark(t.Priority))
	if t.AssignedWorkerType != "" {
		target := t.AssignedWorkerType
		if t.AssignedWorkerID != "" {
			target = fmt.Sprintf("%s (%s)", t.AssignedWorkerType, t.AssignedWorkerID)
		}
		fmt.Printf("   Assigned: %s\n", target)
	}
	if t.ClaimedByWorkerID != "" {
		fmt.Printf("   Claimed:  %s since %s\n", t.ClaimedByWorkerID, t.ClaimedAt)
	}
}

func printEventLine(e *primary.Event) {
	actor := e.ActorType
	if e.ActorID != "" {
		actor = fmt.Sprintf("%s:%s", e.ActorType, e.ActorID)
	}
	line := fmt.Sprintf("  %s  %-20s %s", e.CreatedAt, e.Type, actor)
	if e.Message != "" {
		line += "  " + e.Message
	}
	fmt.Println(line)
}

func printWorkerLine(w *primary.WorkerOverview) {
	mark := color.New(color.FgGreen).Sprint("●")
	if w.Status != task.WorkerOnline {
		mark = color.New(color.FgHiBlack).Sprint("○")
	}

	types := ""
	if len(w.WorkerTypes) > 0 {
		types = " [" + strings.Join(w.WorkerTypes, ",") + "]"
	}
	fmt.Printf("%s %s%s (%s)\n", mark, w.ID, types, w.Status)
	if w.LastHeartbeatAt != "" {
		fmt.Printf("   Last heartbeat: %s\n", w.LastHeartbeatAt)
	}
	if w.CurrentTaskID != "" {
		fmt.Printf("   Working on: %s (%s)\n", w.CurrentTaskTitle, task.ShortID(w.CurrentTaskID))
	}
	if w.ActiveClaimCount > 1 {
		fmt.Printf("   Open claims: %d\n", w.ActiveClaimCount)
	}
}
