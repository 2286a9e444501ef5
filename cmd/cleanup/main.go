// Command cleanup deletes content items that ended more than 30 days ago, the
// same selection the dashboard runs when an admin session opens.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/example/blazehunter/internal/database"
	"github.com/example/blazehunter/internal/dates"
	"github.com/example/blazehunter/internal/logger"
	"github.com/example/blazehunter/internal/services"
)

type options struct {
	Email  string `long:"email" env:"ADMIN_EMAIL" description:"Admin email used to authorise the delete" required:"true"`
	Key    string `long:"key" env:"ADMIN_KEY" description:"Admin access key" required:"true"`
	DryRun bool   `long:"dry-run" description:"Only print the ids that would be deleted"`
	Date   string `long:"date" description:"Run as if today were this day (DD/MM/YYYY)"`

	SupabaseURL string        `long:"supabase-url" env:"SUPABASE_URL" description:"Data service URL"`
	ServiceKey  string        `long:"service-key" env:"SUPABASE_SERVICE_ROLE_KEY" description:"Data service service-role key"`
	DatabaseURL string        `long:"database-url" env:"DATABASE_URL" description:"Local database DSN, used when no data service is set"`
	Timeout     time.Duration `long:"timeout" default:"30s" description:"Gateway request timeout"`
	Env         string        `long:"env" env:"APP_ENV" default:"production" description:"Log format: development prints to the console"`
}

func main() {
	_ = godotenv.Load()

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	logger.Init(opts.Env)
	log := logger.Get()

	gw, err := openGateway(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("gateway")
	}

	if err := run(context.Background(), opts, gw, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("cleanup failed")
	}
}

func openGateway(opts options) (services.Gateway, error) {
	if opts.SupabaseURL != "" && opts.ServiceKey != "" {
		return services.NewSupabaseGateway(opts.SupabaseURL, opts.ServiceKey, opts.Timeout, logger.With("supabase"))
	}
	if opts.DatabaseURL != "" {
		db, err := database.Connect(opts.DatabaseURL, false)
		if err != nil {
			return nil, err
		}
		return services.NewStoreGateway(db, nil, logger.With("store")), nil
	}
	return nil, services.ErrNotConfigured
}

// run executes the cleanup and prints one line per selected id.
func run(ctx context.Context, opts options, gw services.Gateway, out io.Writer) error {
	today := time.Now()
	if opts.Date != "" {
		parsed, ok := dates.ParseStrict(opts.Date)
		if !ok {
			return fmt.Errorf("invalid --date %q, want DD/MM/YYYY", opts.Date)
		}
		today = parsed
	}

	creds := services.Credentials{Email: opts.Email, Key: opts.Key}
	if err := creds.Validate(); err != nil {
		return err
	}

	ok, err := gw.VerifyAdminKey(ctx, creds.Normalized())
	if err != nil {
		return err
	}
	if !ok {
		return services.ErrUnauthorized
	}

	cleanup := services.NewCleanupService(gw, services.NewMemorySessionStore(), logger.With("cleanup"))
	ids, err := cleanup.Run(ctx, creds.Normalized(), today, opts.DryRun)
	if err != nil {
		return err
	}

	verb := "deleted"
	if opts.DryRun {
		verb = "would delete"
	}
	for _, id := range ids {
		fmt.Fprintf(out, "%s %d\n", verb, id)
	}
	fmt.Fprintf(out, "%s %d item(s) as of %s\n", verb, len(ids), dates.Format(dates.Today(today)))
	return nil
}
