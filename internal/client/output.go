package client

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MKhiriev/bank-mmudzi/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// render writes v as indented JSON or hands a printer to text.
func (a *App) render(v any, text func(p *printer)) error {
	if a.format == FormatJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	p := &printer{w: a.out}
	text(p)
	return p.err
}

// printer keeps the first write error so render functions stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) table(header []string, rows [][]string) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	p.err = tw.Flush()
}

func (p *printer) status(r models.SyncStatusReport) {
	mode := okStyle.Render(string(r.Mode))
	if r.Mode != models.ModePrimary {
		mode = warnStyle.Render(string(r.Mode))
	}

	p.line("%s %s", titleStyle.Render("mode:"), mode)
	p.line("fallback active:      %t", r.FallbackActive)
	p.line("consecutive failures: %d", r.ConsecutiveFailures)
	p.line("last health check:    %s", formatTime(r.LastHealthCheck))
	p.line("pending records:      %d", r.PendingCount)
	p.line("open conflicts:       %d", r.ConflictCount)
	p.line("last sync:            %s", formatTime(r.LastSyncTime))
	p.line("sync running:         %t", r.SyncRunning)
}

func (p *printer) trigger(scheduled bool) {
	if scheduled {
		p.line("sync scheduled")
		return
	}
	p.line("%s", faintStyle.Render("a sync is already queued or running"))
}

func (p *printer) recheck(r models.RecheckResponse) {
	if r.Mode == models.ModePrimary {
		p.line("primary store is reachable, mode: %s", okStyle.Render(string(r.Mode)))
		return
	}
	p.line("primary store is unreachable, mode: %s", warnStyle.Render(string(r.Mode)))
}

func (p *printer) conflicts(cs []models.ConflictRecord) {
	if len(cs) == 0 {
		p.line("no unresolved conflicts")
		return
	}

	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{
			fmt.Sprint(c.ID),
			c.Table,
			c.RecordID,
			string(c.Op),
			c.DetectedAt.UTC().Format(time.RFC3339),
		})
	}
	p.table([]string{"ID", "TABLE", "RECORD", "OP", "DETECTED"}, rows)
}

func (p *printer) conflict(c models.ConflictRecord) {
	p.line("%s %d on %s/%s (%s)", titleStyle.Render("conflict"), c.ID, c.Table, c.RecordID, c.Op)
	p.line("detected:  %s", c.DetectedAt.UTC().Format(time.RFC3339))
	p.line("resolved:  %t", c.Resolved)
	if c.Resolved {
		p.line("strategy:  %s", c.ResolutionStrategy)
	}

	columns := unionKeys(c.SecondarySnapshot, c.PrimarySnapshot)
	rows := make([][]string, 0, len(columns))
	for _, col := range columns {
		sec, pri := cell(c.SecondarySnapshot, col), cell(c.PrimarySnapshot, col)
		marker := ""
		if sec != pri {
			marker = "*"
		}
		rows = append(rows, []string{col, sec, pri, marker})
	}
	header := []string{
		"COLUMN",
		"SECONDARY @ " + c.SecondaryTimestamp.UTC().Format(time.RFC3339),
		"PRIMARY @ " + c.PrimaryTimestamp.UTC().Format(time.RFC3339),
		"",
	}
	p.table(header, rows)
}

func (p *printer) resolved(r models.ResolveConflictResponse, strategy models.ResolutionStrategy) {
	if r.Resolved {
		p.line("conflict %d resolved with %s", r.ConflictID, strategy)
		return
	}
	p.line("%s", warnStyle.Render(fmt.Sprintf("conflict %d is still open", r.ConflictID)))
}

func (p *printer) logEntries(entries []models.LogEntry) {
	if len(entries) == 0 {
		p.line("sync log is empty")
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			string(e.Level),
			e.SessionID,
			e.Message,
		})
	}
	p.table([]string{"TIME", "LEVEL", "SESSION", "MESSAGE"}, rows)
}

func (p *printer) versions(client models.VersionResponse, server *models.VersionResponse) {
	p.line("client: %s", describeVersion(client))
	if server != nil {
		p.line("server: %s", describeVersion(*server))
	}
}

func describeVersion(v models.VersionResponse) string {
	parts := []string{v.Version}
	if v.Commit != "" {
		parts = append(parts, "commit "+v.Commit)
	}
	if v.Date != "" {
		parts = append(parts, "built "+v.Date)
	}
	return strings.Join(parts, ", ")
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func unionKeys(rows ...models.Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cell(r models.Row, col string) string {
	v, ok := r[col]
	if !ok {
		return "-"
	}
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
