// Package cli implements the coverage command line tool. It runs the same
// session pipeline as the API against a YAML catalog, without a database.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teambuilder-backend/internal/catalog"
	"teambuilder-backend/internal/sessions"
	"teambuilder-backend/internal/shared/telemetry"
)

const (
	envPrefix = "COVERAGE"
	cliUser   = "cli"
)

// app carries state shared by every subcommand.
type app struct {
	v   *viper.Viper
	out io.Writer
}

// NewRootCmd builds the command tree writing results to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:   "coverage",
		Short: "Analyse care team coverage against a care setting catalog.",
		Long: `coverage runs the gap analysis, suggestion ranking and minimum team
search against a YAML catalog. Without --fixture the built-in sample catalog is used.`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml)")
	pf.String("fixture", "", "catalog fixture file (yaml)")
	pf.String("care-setting", "", "care setting ID")
	pf.StringSlice("activities", nil, "activity IDs to analyse (default: the care setting's selection)")
	pf.StringSlice("team", nil, "occupation IDs on the team")
	pf.String("log-level", "warn", "log level written to stderr (debug, info, warn, error)")

	root.AddCommand(
		a.careSettingsCmd(),
		a.gapCmd(),
		a.suggestCmd(),
		a.minimumTeamCmd(),
		a.exportCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure. Logs go to
// stderr so stdout carries only command output.
func Execute() {
	telemetry.SetOutput(os.Stderr)
	if err := NewRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig binds flags, COVERAGE_* env vars and the optional config file.
// Flags win over env, env wins over the file.
func (a *app) initConfig(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if cfgFile := a.v.GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	if level := a.v.GetString("log-level"); !telemetry.SetLevel(level) {
		return fmt.Errorf("unknown log level %q", level)
	}
	return nil
}

// list reads a list setting. Env and config values may be comma separated.
func (a *app) list(key string) []string {
	var out []string
	for _, item := range a.v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func (a *app) catalog() (*catalog.MemoryRepo, error) {
	if path := strings.TrimSpace(a.v.GetString("fixture")); path != "" {
		return catalog.LoadFixture(path)
	}
	return catalog.DefaultFixture()
}

// session builds a throwaway planning session from the flags.
func (a *app) session(ctx context.Context) (*sessions.Service, string, error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, "", err
	}
	careSetting := strings.TrimSpace(a.v.GetString("care-setting"))
	if careSetting == "" {
		return nil, "", fmt.Errorf("--care-setting is required")
	}

	svc := sessions.NewService(sessions.NewMemoryRepo(), cat)
	if size := a.v.GetInt("max-page-size"); size > 0 {
		svc.MaxPageSize = size
	}
	session, err := svc.Create(ctx, cliUser, careSetting, "")
	if err != nil {
		return nil, "", err
	}

	if ids := a.list("activities"); len(ids) > 0 {
		activities, err := cat.ActivitiesByIDs(ctx, ids)
		if err != nil {
			return nil, "", err
		}
		byBundle := make(map[string][]string)
		for _, activity := range activities {
			byBundle[activity.Bundle.ID] = append(byBundle[activity.Bundle.ID], activity.ID)
		}
		if err := svc.SaveActivities(ctx, session.ID, byBundle); err != nil {
			return nil, "", err
		}
	}
	if err := svc.SaveOccupations(ctx, session.ID, a.list("team")); err != nil {
		return nil, "", err
	}
	return svc, session.ID, nil
}
