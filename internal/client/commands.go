package client

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

const defaultTokenTTL = 12 * time.Hour

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection mode and sync queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			report, err := api.Status(ctx)
			if err != nil {
				return fmt.Errorf("get status: %w", err)
			}
			return a.render(report, func(p *printer) { p.status(report) })
		},
	}
}

func (a *App) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Schedule a sync session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			scheduled, err := api.Trigger(ctx)
			if err != nil {
				return fmt.Errorf("trigger sync: %w", err)
			}
			res := models.TriggerSyncResponse{Scheduled: scheduled}
			return a.render(res, func(p *printer) { p.trigger(scheduled) })
		},
	}
}

func (a *App) recheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recheck",
		Short: "Probe the primary store now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			res, err := api.Recheck(ctx)
			if err != nil {
				return fmt.Errorf("recheck: %w", err)
			}
			return a.render(res, func(p *printer) { p.recheck(res) })
		},
	}
}

func (a *App) conflictsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conflicts",
		Aliases: []string{"conflict"},
		Short:   "Inspect and resolve sync conflicts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List unresolved conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			conflicts, err := api.ListConflicts(ctx)
			if err != nil {
				return fmt.Errorf("list conflicts: %w", err)
			}
			if conflicts == nil {
				conflicts = []models.ConflictRecord{}
			}
			res := models.ConflictsResponse{Conflicts: conflicts, Length: len(conflicts)}
			return a.render(res, func(p *printer) { p.conflicts(conflicts) })
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show both snapshots of a conflict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			api, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			c, err := api.GetConflict(ctx, id)
			if err != nil {
				return fmt.Errorf("get conflict %d: %w", id, err)
			}
			return a.render(c, func(p *printer) { p.conflict(c) })
		},
	}

	var strategy, merged string
	resolve := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a conflict",
		Long: "Resolve a conflict with one of the strategies primary_wins, secondary_wins, latest_timestamp or manual.\n" +
			"The manual strategy needs --merged with the row to write into the primary store.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			parsed, err := models.ParseResolutionStrategy(strategy)
			if err != nil {
				return err
			}

			var row models.Row
			if merged != "" {
				if row, err = models.DecodeRow([]byte(merged)); err != nil {
					return fmt.Errorf("%w: %w", ErrInvalidMergedRow, err)
				}
			}

			api, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			resolved, err := api.Resolve(ctx, id, string(parsed), row)
			if err != nil {
				return fmt.Errorf("resolve conflict %d: %w", id, err)
			}
			res := models.ResolveConflictResponse{ConflictID: id, Resolved: resolved}
			return a.render(res, func(p *printer) { p.resolved(res, parsed) })
		},
	}
	resolve.Flags().StringVarP(&strategy, "strategy", "s", "", "resolution strategy")
	resolve.Flags().StringVar(&merged, "merged", "", "merged row as a JSON object, for the manual strategy")
	_ = resolve.MarkFlagRequired("strategy")

	cmd.AddCommand(list, show, resolve)
	return cmd
}

func (a *App) logCommand() *cobra.Command {
	var (
		session string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the latest sync log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			entries, err := api.Tail(ctx, session, limit)
			if err != nil {
				return fmt.Errorf("read sync log: %w", err)
			}
			if entries == nil {
				entries = []models.LogEntry{}
			}
			res := models.SyncLogResponse{Entries: entries, Length: len(entries)}
			return a.render(res, func(p *printer) { p.logEntries(entries) })
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "only entries of this sync session")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries (server default when 0)")
	return cmd
}

func (a *App) tokenCommand() *cobra.Command {
	var (
		operator string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an operator token with the configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.TokenSignKey == "" {
				return ErrSignKeyMissing
			}
			token, err := utils.GenerateOperatorToken(a.cfg.TokenIssuer, operator, ttl, a.cfg.TokenSignKey)
			if err != nil {
				return err
			}

			res := struct {
				Token     string    `json:"token"`
				Operator  string    `json:"operator"`
				ExpiresAt time.Time `json:"expires_at"`
			}{token.String(), token.Operator, token.ExpiresAt.Time.UTC()}
			return a.render(res, func(p *printer) { p.line("%s", token.String()) })
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "operator name put into the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

func (a *App) versionCommand() *cobra.Command {
	var clientOnly bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res := struct {
				Client models.VersionResponse  `json:"client"`
				Server *models.VersionResponse `json:"server,omitempty"`
			}{Client: models.VersionResponse{
				Version: orNA(a.build.BuildVersion()),
				Date:    a.build.BuildDate(),
				Commit:  a.build.BuildCommit(),
			}}

			if !clientOnly {
				api, err := a.api()
				if err != nil {
					return err
				}
				ctx, cancel := a.requestContext(cmd)
				defer cancel()

				v, err := api.Version(ctx)
				if err != nil {
					return fmt.Errorf("get server version: %w", err)
				}
				res.Server = &v
			}
			return a.render(res, func(p *printer) { p.versions(res.Client, res.Server) })
		},
	}
	cmd.Flags().BoolVar(&clientOnly, "client", false, "do not contact the server")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
