package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tgienger/tasker/internal/api"
	"github.com/tgienger/tasker/internal/apperr"
	"github.com/tgienger/tasker/internal/config"
	"github.com/tgienger/tasker/internal/db"
	"github.com/tgienger/tasker/internal/logging"
	"github.com/tgienger/tasker/internal/query"
	"github.com/tgienger/tasker/internal/service"
	"github.com/tgienger/tasker/internal/session"
	"github.com/tgienger/tasker/internal/ui"
	"github.com/tgienger/tasker/internal/ui/views"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errUsage = errors.New("usage")

const usage = `usage: tasker [command]

commands:
  (none)          open the task board
  login <token>   store a backend token
  logout          forget the stored token
  whoami          print the signed-in user
  drafts          list unsent drafts
  --version, -v   print version information
`

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("tasker %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("Error loading configuration", err)
	}

	log, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fatal("Error initializing logger", err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	// Initialize database
	database, err := db.New(cfg.DBPath)
	if err != nil {
		fatal("Error initializing database", err)
	}
	defer database.Close()

	provider := session.NewProvider(database, cfg.Token)

	if len(os.Args) > 1 {
		err := runCommand(cfg, database, provider, os.Args[1:])
		switch {
		case errors.Is(err, errUsage):
			fmt.Fprint(os.Stderr, usage)
			database.Close()
			os.Exit(2)
		case err != nil:
			fmt.Fprintln(os.Stderr, apperr.Message(err, cfg.Lang))
			database.Close()
			os.Exit(1)
		}
		return
	}

	client, err := api.New(cfg.APIURL, provider, cfg.RequestTimeout, log)
	if err != nil {
		fatal("Error creating api client", err)
	}
	cache := query.New(cfg.CacheTTL, log)

	deps := views.Deps{
		Tasks:    service.NewTasks(client, cache, log),
		Projects: service.NewProjects(client, cache, log),
		Teams:    service.NewTeams(client, cache, log),
		Session:  provider,
		DB:       database,
		Log:      log,
		Lang:     cfg.Lang,
		Timeout:  cfg.RequestTimeout,
		Refresh:  cfg.RefreshInterval,
	}

	// Create and run the application
	app := ui.NewApp(deps)
	p := tea.NewProgram(app, tea.WithAltScreen())

	log.Info("starting", zap.String("version", version), zap.String("api", cfg.APIURL))
	if _, err := p.Run(); err != nil {
		log.Error("run", zap.Error(err))
		fatal("Error running application", err)
	}
}

func runCommand(cfg *config.Config, database *db.DB, provider *session.Provider, args []string) error {
	switch args[0] {
	case "login":
		if len(args) != 2 {
			return errUsage
		}
		user, err := provider.SignIn(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s <%s>\n", user.DisplayName(), user.Email)
		if cfg.Token != "" {
			fmt.Println("TASKER_TOKEN is set and takes precedence over the stored token")
		}

	case "logout":
		if err := provider.SignOut(); err != nil {
			return err
		}
		fmt.Println("Signed out")

	case "whoami":
		user, err := provider.Current()
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> (%s)\n", user.DisplayName(), user.Email, user.ID)

	case "drafts":
		drafts, err := database.GetDrafts()
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Println("No drafts")
			return nil
		}
		for _, d := range drafts {
			label := d.Title
			if label == "" {
				label, _, _ = strings.Cut(d.Body, "\n")
			}
			fmt.Printf("%-24s %s  %s\n", d.Key, d.UpdatedAt.Local().Format("2006-01-02 15:04"), label)
		}

	case "help", "--help", "-h":
		fmt.Print(usage)

	default:
		return errUsage
	}
	return nil
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
