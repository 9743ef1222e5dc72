package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"golang.org/x/oauth2"

	tea "github.com/charmbracelet/bubbletea"

	"cyclecoach/internal/auth"
	"cyclecoach/internal/config"
	"cyclecoach/internal/narrative"
	"cyclecoach/internal/plan"
	"cyclecoach/internal/service"
	"cyclecoach/internal/store"
	"cyclecoach/internal/strava"
	"cyclecoach/internal/tui"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	importFile := flag.String("import", "", "import a FIT file instead of launching the UI")
	newProgram := flag.Bool("new-program", false, "create a training program and exit")
	goalType := flag.String("goal", "ftp_target", "program goal: race_prep, ftp_target, base_building")
	goalDesc := flag.String("goal-desc", "", "one-line program goal description")
	targetDate := flag.String("target-date", "", "program target date (YYYY-MM-DD)")
	targetFTP := flag.Float64("target-ftp", 0, "target FTP in watts (ftp_target goals)")
	autoSync := flag.Bool("auto-sync", false, "run headless, syncing on a schedule")
	schedule := flag.String("schedule", "@hourly", "cron schedule for -auto-sync")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("You need to set your FTP and Strava API credentials.")
		fmt.Println("Get API credentials from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := seedProfile(db, cfg); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	// FIT import works without Strava credentials
	if *importFile != "" {
		importSvc := service.NewImportService(db, cfg.Athlete.FTP)
		a, err := importSvc.ImportFile(*importFile)
		if err != nil {
			return fmt.Errorf("importing %s: %w", *importFile, err)
		}
		fmt.Printf("Imported %q: %d min", a.Name, a.DurationSeconds/60)
		if a.TSS != nil {
			fmt.Printf(", TSS %.0f", *a.TSS)
		}
		fmt.Println()
		return nil
	}

	if *newProgram {
		goal := plan.Goal{
			Type:            plan.GoalType(*goalType),
			Description:     *goalDesc,
			TargetDate:      *targetDate,
			TargetFTP:       *targetFTP,
			HoursPerWeek:    cfg.Athlete.HoursPerWeek,
			SessionsPerWeek: cfg.Athlete.SessionsPerWeek,
		}
		if goal.Description == "" {
			goal.Description = fmt.Sprintf("%s program", *goalType)
		}
		programs := service.NewProgramService(db, narrativeGenerator(cfg))
		program, err := programs.CreateProgram(ctx, goal)
		if err != nil {
			return fmt.Errorf("creating program: %w", err)
		}
		fmt.Printf("Created %d-week %s program (%s)\n", program.TotalWeeks, program.GoalType, program.ID)
		return nil
	}

	stravaClient, err := connectStrava(ctx, db, cfg)
	if err != nil {
		return err
	}

	syncSvc := service.NewSyncService(stravaClient, db, cfg.Athlete.FTP, cfg.Athlete.WeightKg)
	querySvc := service.NewQueryService(db, cfg.Athlete.FTP, cfg.Athlete.WeightKg)
	programSvc := service.NewProgramService(db, narrativeGenerator(cfg))

	if *autoSync {
		return runAutoSync(syncSvc, *schedule)
	}

	app := tui.NewApp(db, querySvc, syncSvc, programSvc)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}

// seedProfile keeps the stored athlete profile in step with the config's
// threshold settings, preserving computed fitness fields.
func seedProfile(db *store.DB, cfg *config.Config) error {
	profile, err := db.GetProfile()
	if errors.Is(err, store.ErrNoProfile) {
		profile = &store.Profile{}
	} else if err != nil {
		return err
	}

	profile.FTP = cfg.Athlete.FTP
	profile.WeightKg = cfg.Athlete.WeightKg
	return db.SaveProfile(profile)
}

// connectStrava sets up the OAuth token source, running the browser flow
// when no valid stored token exists.
func connectStrava(ctx context.Context, db *store.DB, cfg *config.Config) (*strava.Client, error) {
	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", auth.CallbackPort),
	})

	storedAuth, err := db.GetAuth()
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Println("No authentication found. Starting OAuth flow...")
		if storedAuth, err = authenticate(ctx, db, oauthCfg); err != nil {
			return nil, fmt.Errorf("authentication: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  storedAuth.AccessToken,
		RefreshToken: storedAuth.RefreshToken,
		Expiry:       storedAuth.ExpiresAt,
	}

	tokenSource := auth.NewTokenSource(oauthCfg, token, func(newToken *oauth2.Token) error {
		return db.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
	})

	if _, err := tokenSource.Token(); err != nil {
		fmt.Println("Stored token is invalid or expired. Re-authenticating...")
		if storedAuth, err = authenticate(ctx, db, oauthCfg); err != nil {
			return nil, fmt.Errorf("re-authentication: %w", err)
		}
		token = &oauth2.Token{
			AccessToken:  storedAuth.AccessToken,
			RefreshToken: storedAuth.RefreshToken,
			Expiry:       storedAuth.ExpiresAt,
		}
		tokenSource = auth.NewTokenSource(oauthCfg, token, func(newToken *oauth2.Token) error {
			return db.UpdateTokens(newToken.AccessToken, newToken.RefreshToken, newToken.Expiry)
		})
	}

	return strava.NewClient(tokenSource), nil
}

func authenticate(ctx context.Context, db *store.DB, oauthCfg *oauth2.Config) (*store.Auth, error) {
	result, err := auth.Authenticate(ctx, oauthCfg)
	if err != nil {
		return nil, err
	}

	storedAuth := &store.Auth{
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}
	if err := db.SaveAuth(storedAuth); err != nil {
		return nil, fmt.Errorf("saving auth: %w", err)
	}

	fmt.Println()
	fmt.Printf("Successfully authenticated as athlete %d!\n", result.AthleteID)
	return storedAuth, nil
}

// narrativeGenerator builds the optional LLM plan generator from config.
func narrativeGenerator(cfg *config.Config) plan.NarrativeGenerator {
	if cfg.Narrative.APIKey == "" {
		return nil
	}
	return narrative.NewClient(cfg.Narrative.APIKey, cfg.Narrative.Model, cfg.Narrative.BaseURL)
}

// runAutoSync runs headless scheduled syncs until interrupted.
func runAutoSync(syncSvc *service.SyncService, schedule string) error {
	scheduler, err := service.NewScheduler(schedule, func(ctx context.Context) {
		result, err := syncSvc.SyncAll(ctx, nil)
		if err != nil {
			log.Printf("sync failed: %v", err)
			return
		}
		log.Printf("sync complete: %d rides stored, %d analyzed, CTL %.1f",
			result.RidesStored, result.MetricsComputed, result.Fitness.CTL)
	})
	if err != nil {
		return err
	}

	log.Printf("auto-sync running on schedule %q, press Ctrl+C to stop", schedule)
	scheduler.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	<-scheduler.Stop().Done()
	return nil
}
