// Command snippetctl administers a snippets API database from the shell.
//
// It talks to the SQLite file directly, with the same services and the same
// audit recorder as the server, so every change it makes lands in the audit
// trail. Its mutations run as the system actor and are recorded with no
// user.
//
// Examples:
//
//	snippetctl createsuperuser --username admin
//	snippetctl deactivate bob
//	snippetctl audit list --model User --action update
//	snippetctl migrate
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sakif/snippets-api/internal/actor"
	"github.com/sakif/snippets-api/internal/audit"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/config"
	sqliteRepo "github.com/sakif/snippets-api/internal/repository/sqlite"
	"github.com/sakif/snippets-api/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}

// run executes one snippetctl invocation. The database opened for it is
// closed before run returns, whether or not the command failed.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	app := &cli{}
	root := app.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	defer app.close()

	return root.ExecuteContext(ctx)
}

// cli holds what every subcommand needs. open fills it in before the
// subcommand runs.
type cli struct {
	dbPath string

	db     *sqliteRepo.DB
	logger *slog.Logger
	users  *service.UserService
	audit  *service.AuditService
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "snippetctl",
		Short: "Administer a snippets API database",
		Long: `snippetctl manages accounts and inspects the audit trail of a snippets
API database. Configuration comes from the same environment variables (and
.env file) as the server; JWT_SECRET is not needed.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.open,
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "database file (default $DB_PATH, then data/snippets.db)")

	root.AddCommand(
		c.createSuperuserCmd(),
		c.deactivateCmd(),
		c.purgeCmd(),
		c.auditCmd(),
		c.migrateCmd(),
	)
	return root
}

// open loads the configuration, opens (and migrates) the database and
// registers the audit recorder, exactly as the server does at startup.
func (c *cli) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadCLI()
	if err != nil {
		return err
	}
	if c.dbPath == "" {
		c.dbPath = cfg.DB.Path
	}

	// Business events go to stderr so stdout stays clean for piping.
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Log.Level}))

	if c.dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(c.dbPath), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	c.db, err = sqliteRepo.New(c.dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	audit.NewRecorder(c.logger, cfg.Audit.Strict).Register(c.db)

	passwords := auth.NewPasswordService(cfg.Auth.BcryptCost)
	c.users = service.NewUserService(c.db.Users(), c.db.Snippets(), passwords, c.logger)
	c.audit = service.NewAuditService(c.db.Audit())
	return nil
}

func (c *cli) close() {
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
}

// systemCtx binds the system actor: the CLI has no logged-in user.
func systemCtx(cmd *cobra.Command) context.Context {
	return actor.WithActor(cmd.Context(), actor.System)
}

func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}
