package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/sadopc/dailystretch/internal/export"
	"github.com/sadopc/dailystretch/internal/model"
	"github.com/sadopc/dailystretch/internal/reminder"
	"github.com/sadopc/dailystretch/internal/store"
	"github.com/sadopc/dailystretch/internal/timer"
	"github.com/spf13/cobra"
)

func newStatusCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the saved timer, reminders and today's sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(f, cmd.OutOrStdout(), time.Now())
		},
	}
}

func newExportCmd(f *flags) *cobra.Command {
	var (
		format string
		out    string
		mode   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export completed sessions as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(f, cmd.OutOrStdout(), format, out, mode, time.Now())
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&mode, "mode", "", "only sessions of this mode: study or break")
	return cmd
}

func newClearCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved timer and reminder interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(f, cmd.OutOrStdout())
		},
	}
}

func runStatus(f *flags, w io.Writer, now time.Time) error {
	cfg, _, err := loadConfig(f)
	if err != nil {
		return err
	}
	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	p := timer.NewPersister(b.durable, store.NewMemoryKV(), cfg.UserKey, nil)
	snap, ok := p.LoadSnapshot()
	if !ok {
		fmt.Fprintln(w, "Timer:     none saved")
	} else {
		mode := model.ModeBreak
		if snap.IsStudy {
			mode = model.ModeStudy
		}
		state := "paused"
		remaining := min(snap.Remaining(), cfg.Session.Duration(mode))
		if snap.IsRunning {
			state = "running"
			if snap.LastUpdate != nil {
				remaining -= max(now.Sub(snap.LastUpdateTime()), 0)
				remaining = max(remaining, 0)
			}
		}
		fmt.Fprintf(w, "Timer:     %s, %s, %s left\n", mode, state, formatClock(remaining))
	}

	interval := reminder.DefaultInterval
	if raw, err := b.durable.Get(reminder.IntervalKey()); err == nil {
		if n, err := strconv.Atoi(raw); err == nil && reminder.ValidInterval(n) {
			interval = n
		}
	}
	for _, ch := range reminder.Channels {
		v, err := b.durable.Get(reminder.ToggleKey(ch, cfg.UserKey))
		if err != nil || v != "on" {
			v = "off"
		}
		fmt.Fprintf(w, "%-10s %s\n", string(ch)+":", v)
	}
	fmt.Fprintf(w, "Interval:  %d min\n", interval)

	study, err := b.store.GetTodayCount(cfg.UserKey, model.ModeStudy, now)
	if err != nil {
		return err
	}
	brk, err := b.store.GetTodayCount(cfg.UserKey, model.ModeBreak, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Today:     %d study, %d break\n", study, brk)
	return nil
}

func runExport(f *flags, w io.Writer, format, out, mode string, now time.Time) error {
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown format %q (want csv or json)", format)
	}
	filter := store.SessionFilter{}
	switch model.Mode(mode) {
	case "":
	case model.ModeStudy, model.ModeBreak:
		filter.Mode = model.Mode(mode)
	default:
		return fmt.Errorf("unknown mode %q (want study or break)", mode)
	}

	cfg, _, err := loadConfig(f)
	if err != nil {
		return err
	}
	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	filter.UserKey = cfg.UserKey
	sessions, err := b.store.ListSessions(filter)
	if err != nil {
		return err
	}
	slices.Reverse(sessions)

	if out != "" {
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer file.Close()
		w = file
	}

	if format == "json" {
		return export.WriteJSON(w, sessions, now)
	}
	return export.WriteCSV(w, sessions)
}

func runClear(f *flags, w io.Writer) error {
	cfg, _, err := loadConfig(f)
	if err != nil {
		return err
	}
	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	p := timer.NewPersister(b.durable, store.NewMemoryKV(), cfg.UserKey, nil)
	err = errors.Join(p.Clear(), b.durable.Remove(reminder.IntervalKey()))
	if err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	fmt.Fprintln(w, "Cleared saved timer and reminder interval")
	return nil
}

func formatClock(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
