package main

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Audit viewer error: %v\n", err)
	}
	os.Exit(code)
}

// run prints the stored audit trail newest first. The store is opened read
// only, so it can be inspected while the relay is running.
func run(args []string, out io.Writer) (int, error) {
	_ = godotenv.Load()
	flags := flag.NewFlagSet("audit", flag.ContinueOnError)
	dbPath := flags.String("db", os.Getenv("BADGER_FILEPATH"), "Path to the relay badger store")
	identity := flags.String("identity", "", "Only show events of this identity")
	limit := flags.Int("limit", 50, "Maximum number of events, 0 for all")
	if err := flags.Parse(args); err != nil {
		return exitConfig, err
	}
	if *dbPath == "" {
		return exitConfig, fmt.Errorf("no store given, use -db or BADGER_FILEPATH")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repository := repositories.NewAuditRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	events, _, err := repository.List(repositories.AuditQuery{
		Identity: domain.Identity(*identity),
		Limit:    *limit,
	})
	if err != nil {
		return exitRuntime, err
	}

	render(out, events)
	return exitOK, nil
}

func render(out io.Writer, events []domain.AuditEvent) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"At", "Kind", "Identity", "Reason", "Remote", "ID"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, evt := range events {
		table.Append([]string{
			evt.At.Format("2006-01-02 15:04:05.000"),
			kindColour(evt.Kind).Render(string(evt.Kind)),
			string(evt.Identity),
			orDash(evt.Reason),
			orDash(evt.RemoteAddr),
			evt.ID.String()[:8],
		})
	}
	table.Render()
}

func kindColour(kind domain.AuditKind) color.Color {
	switch kind {
	case domain.AuditRegistered:
		return color.FgGreen
	case domain.AuditDeparted:
		return color.FgYellow
	case domain.AuditRejected:
		return color.FgRed
	default:
		return color.FgDefault
	}
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
