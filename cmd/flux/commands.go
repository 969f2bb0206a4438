package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"flux/internal/bootstrap"
	analyticsdto "flux/internal/modules/analytics/dto"
	trackerdto "flux/internal/modules/tracker/dto"
)

func newCheckInCmd(c *cli) *cobra.Command {
	var (
		level    int
		tags     []string
		note     string
		assisted bool
	)
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Record today's energy level (0-100)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("level") {
				return fmt.Errorf("--level is required")
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				var (
					out    trackerdto.CheckInOutput
					source = "heuristic"
					err    error
				)
				if assisted {
					res, aerr := app.CoachCLI.CheckIn(ctx, level, tags, note)
					out, source, err = res.CheckInOutput, res.Source, aerr
				} else {
					out, err = app.TrackerCLI.CheckIn(ctx, level, tags, note)
				}
				if out.Mode != "" {
					printCheckIn(cmd.OutOrStdout(), out, source)
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&level, "level", 0, "energy level 0-100")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "context tags (motivated, sick, bad night, ...)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().BoolVar(&assisted, "ai", false, "consult the analysis provider first")
	return cmd
}

func printCheckIn(w io.Writer, out trackerdto.CheckInOutput, source string) {
	_, _ = fmt.Fprintf(w, "%s %s  level=%d mode=%s source=%s\n", out.Icon, out.Label, out.Level, out.Mode, source)
	if out.Somatic != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", out.Somatic)
	}
	if out.Reasoning != "" {
		_, _ = fmt.Fprintf(w, "  reasoning: %s\n", out.Reasoning)
	}
	if out.Tip != "" {
		_, _ = fmt.Fprintf(w, "  tip: %s\n", out.Tip)
	}
	if out.Negotiate {
		_, _ = fmt.Fprintln(w, "  low energy: keep the survival plan, or run `flux override maintenance`")
	}
}

func newOverrideCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "override <survival|maintenance|expansion>",
		Short: "Force today's operating mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				day, err := app.TrackerCLI.Override(ctx, args[0])
				if day.Mode != "" {
					printDay(cmd.OutOrStdout(), day)
				}
				return err
			})
		},
	}
}

func newHabitCmd(c *cli) *cobra.Command {
	habit := &cobra.Command{Use: "habit", Short: "Manage habits"}

	habit.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List habits with the variant for today's mode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				state, err := app.TrackerCLI.Snapshot(ctx)
				if err != nil {
					return err
				}
				printHabits(cmd.OutOrStdout(), state.Habits)
				return nil
			})
		},
	})

	var (
		category, icon                   string
		survival, maintenance, expansion string
	)
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a habit; variants use \"text[:minutes]\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels := map[string]trackerdto.VariantInput{}
			for mode, raw := range map[string]string{"survival": survival, "maintenance": maintenance, "expansion": expansion} {
				if strings.TrimSpace(raw) == "" {
					continue
				}
				levels[mode] = parseVariant(raw)
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.AddHabit(ctx, trackerdto.AddHabitInput{
					Title:    args[0],
					Category: category,
					Icon:     icon,
					Levels:   levels,
				})
				if out.ID != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", out.Title, out.ID)
				}
				return err
			})
		},
	}
	add.Flags().StringVar(&category, "category", "", "category")
	add.Flags().StringVar(&icon, "icon", "", "icon")
	add.Flags().StringVar(&survival, "survival", "", "survival variant")
	add.Flags().StringVar(&maintenance, "maintenance", "", "maintenance variant (required)")
	add.Flags().StringVar(&expansion, "expansion", "", "expansion variant")

	rm := &cobra.Command{
		Use:   "rm <habit-id>",
		Short: "Remove a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.TrackerCLI.RemoveHabit(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}

	done := &cobra.Command{
		Use:   "done <habit-id>",
		Short: "Mark a habit completed today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				day, err := app.TrackerCLI.CompleteHabit(ctx, args[0])
				if day.Date != "" {
					printDay(cmd.OutOrStdout(), day)
				}
				return err
			})
		},
	}

	var historyLimit int
	history := &cobra.Command{
		Use:   "history <habit-id>",
		Short: "Show completion history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				events, err := app.AnalyticsCLI.HabitHistory(ctx, args[0], historyLimit)
				if err != nil {
					return err
				}
				printEvents(cmd.OutOrStdout(), events)
				return nil
			})
		},
	}
	history.Flags().IntVar(&historyLimit, "limit", 0, "max entries (0 = all)")

	habit.AddCommand(add, rm, done, history)
	return habit
}

// parseVariant splits "Read 1 page:5" into text and minutes. A suffix that is
// not a number stays part of the text.
func parseVariant(raw string) trackerdto.VariantInput {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, ":"); i > 0 {
		if minutes, err := strconv.Atoi(strings.TrimSpace(raw[i+1:])); err == nil {
			return trackerdto.VariantInput{Text: strings.TrimSpace(raw[:i]), Minutes: minutes}
		}
	}
	return trackerdto.VariantInput{Text: raw}
}

func printHabits(w io.Writer, habits []trackerdto.HabitOutput) {
	if len(habits) == 0 {
		_, _ = fmt.Fprintln(w, "no habits")
		return
	}
	for _, h := range habits {
		mark := " "
		if h.Completed {
			mark = "x"
		}
		_, _ = fmt.Fprintf(w, "[%s] %s\t%s\t%s", mark, h.ID, h.Title, h.Current.Text)
		if h.Current.Minutes > 0 {
			_, _ = fmt.Fprintf(w, " (%d min)", h.Current.Minutes)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func newProfileCmd(c *cli) *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Show or edit the user profile"}
	profile.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				state, err := app.TrackerCLI.Snapshot(ctx)
				if err != nil {
					return err
				}
				printProfile(cmd.OutOrStdout(), state.Profile)
				return nil
			})
		},
	})

	var (
		name, archetype, chronotype, goal string
		accountID, accountEmail           string
		onboarded                         bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields; only the given flags change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var input trackerdto.ProfileInput
			stringFlag := func(flag string, value *string) *string {
				if flags.Changed(flag) {
					return value
				}
				return nil
			}
			input.Name = stringFlag("name", &name)
			input.Archetype = stringFlag("archetype", &archetype)
			input.Chronotype = stringFlag("chronotype", &chronotype)
			input.Goal = stringFlag("goal", &goal)
			input.RemoteAccountID = stringFlag("account-id", &accountID)
			input.RemoteAccountEmail = stringFlag("account-email", &accountEmail)
			if flags.Changed("onboarded") {
				input.OnboardingCompleted = &onboarded
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.UpdateProfile(ctx, input)
				printProfile(cmd.OutOrStdout(), out)
				return err
			})
		},
	}
	set.Flags().StringVar(&name, "name", "", "display name")
	set.Flags().StringVar(&archetype, "archetype", "", "archetype")
	set.Flags().StringVar(&chronotype, "chronotype", "", "chronotype")
	set.Flags().StringVar(&goal, "goal", "", "current goal")
	set.Flags().StringVar(&accountID, "account-id", "", "remote account id")
	set.Flags().StringVar(&accountEmail, "account-email", "", "remote account email")
	set.Flags().BoolVar(&onboarded, "onboarded", false, "mark onboarding completed")
	profile.AddCommand(set)
	return profile
}

func printProfile(w io.Writer, p trackerdto.ProfileOutput) {
	_, _ = fmt.Fprintf(w, "name:       %s\n", p.Name)
	_, _ = fmt.Fprintf(w, "archetype:  %s\n", p.Archetype)
	_, _ = fmt.Fprintf(w, "chronotype: %s\n", p.Chronotype)
	_, _ = fmt.Fprintf(w, "goal:       %s\n", p.Goal)
	if p.RemoteAccountID != "" {
		_, _ = fmt.Fprintf(w, "account:    %s %s\n", p.RemoteAccountID, p.RemoteAccountEmail)
	}
	_, _ = fmt.Fprintf(w, "onboarded:  %t\n", p.OnboardingCompleted)
}

func newDayCmd(c *cli) *cobra.Command {
	day := &cobra.Command{Use: "day", Short: "Today's session"}
	day.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show today's level, mode and plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				state, err := app.TrackerCLI.Snapshot(ctx)
				if err != nil {
					return err
				}
				printDay(cmd.OutOrStdout(), state.Today)
				printHabits(cmd.OutOrStdout(), state.Habits)
				return nil
			})
		},
	})
	day.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Close today into the journal and start a fresh session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.TrackerCLI.ResetDay(ctx)
				if out.Date != "" {
					printDay(cmd.OutOrStdout(), out)
				}
				return err
			})
		},
	})
	return day
}

func printDay(w io.Writer, day trackerdto.DayOutput) {
	level := "-"
	if day.Level != nil {
		level = strconv.Itoa(*day.Level)
	}
	_, _ = fmt.Fprintf(w, "%s  level=%s mode=%s checked_in=%t completed=%d\n",
		day.Date, level, day.Mode, day.CheckedIn, len(day.Completed))
	if day.AIReasoning != "" {
		_, _ = fmt.Fprintf(w, "  reasoning: %s\n", day.AIReasoning)
	}
}

func newEventsCmd(c *cli) *cobra.Command {
	events := &cobra.Command{Use: "events", Short: "Inspect the analytics event log"}

	var (
		eventType string
		limit     int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List events, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AnalyticsCLI.List(ctx, eventType, limit)
				if err != nil {
					return err
				}
				printEvents(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	list.Flags().StringVar(&eventType, "type", "", "filter by event type")
	list.Flags().IntVar(&limit, "limit", 0, "only the last N events (0 = all)")

	var days int
	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Print the recent check-in context given to the coach",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				text, err := app.AnalyticsCLI.RecentContext(ctx, days)
				if err != nil {
					return err
				}
				if text == "" {
					text = "no recent check-ins"
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
	contextCmd.Flags().IntVar(&days, "days", 7, "window in days")

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export the event log as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				data, err := app.AnalyticsCLI.Export(ctx)
				if err != nil {
					return err
				}
				if out == "" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
				return nil
			})
		},
	}
	export.Flags().StringVar(&out, "out", "", "write to file instead of stdout")

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the event log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear events without --yes")
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.AnalyticsCLI.Clear(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "events cleared")
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "confirm")

	events.AddCommand(list, contextCmd, export, clearCmd)
	return events
}

func printEvents(w io.Writer, events []analyticsdto.EventOutput) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "no events")
		return
	}
	for _, e := range events {
		_, _ = fmt.Fprintf(w, "%s  %-16s %s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Type, e.ID, e.Payload)
	}
}

func newForecastCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Forecast today's energy from the same weekday's history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				f, err := app.InsightCLI.Forecast(ctx)
				if err != nil {
					return err
				}
				if f == nil {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no forecast for today")
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  avg=%d confidence=%d samples=%d weekday=%s\n  %s\n",
					f.Type, f.AvgEnergy, f.Confidence, f.Samples, f.Weekday, f.Message)
				return nil
			})
		},
	}
}

func newReportCmd(c *cli) *cobra.Command {
	report := &cobra.Command{Use: "report", Short: "Reports"}

	var (
		out    string
		save   bool
		render bool
	)
	weekly := &cobra.Command{
		Use:   "weekly",
		Short: "Summarize the last seven days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				var markdown string
				if save || out != "" {
					exported, err := app.InsightCLI.ExportWeekly(ctx, out)
					if err != nil {
						return err
					}
					markdown = exported.Report.Markdown
					defer func() {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved to %s\n", exported.Path)
					}()
				} else {
					r, err := app.InsightCLI.WeeklyReport(ctx)
					if err != nil {
						return err
					}
					markdown = r.Markdown
				}
				if render {
					rendered, err := renderMarkdown(markdown)
					if err != nil {
						return err
					}
					markdown = rendered
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), markdown)
				return nil
			})
		},
	}
	weekly.Flags().StringVar(&out, "out", "", "save the report to this path")
	weekly.Flags().BoolVar(&save, "save", false, "save the report under the journal")
	weekly.Flags().BoolVar(&render, "render", false, "render markdown for the terminal")
	report.AddCommand(weekly)
	return report
}

func renderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func newCoachCmd(c *cli) *cobra.Command {
	coach := &cobra.Command{Use: "coach", Short: "Coaching from the analysis provider, or heuristics"}
	coach.AddCommand(&cobra.Command{
		Use:   "tip <habit-id>",
		Short: "Suggest how to do a habit at today's energy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				tip, err := app.CoachCLI.Tip(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s/%s] %s\n", tip.Mode, tip.Source, tip.Tip)
				return nil
			})
		},
	})
	coach.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Summarize today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				summary, err := app.CoachCLI.DailySummary(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]\n%s\n", summary.Date, summary.Source, summary.Summary)
				return nil
			})
		},
	})
	return coach
}

func newResetCmd(c *cli) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all state and events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all {
				return fmt.Errorf("pass --all to wipe state and events; use `flux day reset` for a new day")
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.TrackerCLI.ResetAll(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "all data reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "confirm full reset")
	return cmd
}
