package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"jobtrack-engine/internal/config"
	"jobtrack-engine/internal/mailbox"
	"jobtrack-engine/internal/pass"
	"jobtrack-engine/internal/patterns"
	"jobtrack-engine/internal/scheduler"
	"jobtrack-engine/internal/secrets"
	"jobtrack-engine/internal/sheet"
	"jobtrack-engine/internal/store"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "config file path (default: <data-dir>/config.yml, created on first run)")
		dataDir  = flag.String("data-dir", "", "data directory (default: $JOBTRACK_DATA_DIR or .)")
		once     = flag.Bool("once", false, "run a single pass and exit")
		interval = flag.Duration("interval", 0, "override the pass interval, e.g. 5m")
		dryRun   = flag.Bool("dry-run", false, "extract and report but write nothing; emails stay unread")
		setPW    = flag.Bool("set-password", false, "store the IMAP app password in the OS keychain and exit")
		deletePW = flag.Bool("delete-password", false, "remove the stored IMAP app password and exit")
	)
	flag.Parse()

	dir := *dataDir
	if dir == "" {
		dir = os.Getenv("JOBTRACK_DATA_DIR")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One tracker per data dir. A second instance would double-insert
	// because both passes see the same unread mail.
	lock := flock.New(filepath.Join(dir, "tracker.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("run lock: %v", err)
	}
	if !locked {
		log.Fatalf("another tracker is already running against %s", dir)
	}
	defer func() { _ = lock.Unlock() }()

	path := *cfgPath
	if path == "" {
		path, err = config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
		if err != nil {
			log.Fatalf("config bootstrap failed: %v", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", path, err)
	}

	if *setPW || *deletePW {
		if err := managePassword(cfg, *deletePW); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatal(err)
	}

	db, err := store.Open(filepath.Join(dir, "jobtrack.db"))
	if err != nil {
		log.Fatalf("open state db: %v", err)
	}
	defer db.Close()

	password, err := secrets.GetIMAPPassword(
		secrets.IMAPKeyringAccount(cfg.Email.Username, cfg.Email.IMAPHost))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := sheet.NewSheetsBackend(ctx,
		cfg.Sheet.CredentialsFile, cfg.Sheet.SpreadsheetID,
		cfg.Sheet.Worksheet, cfg.Sheet.HeaderRows)
	if err != nil {
		log.Fatalf("sheets backend: %v", err)
	}

	runner := pass.NewRunner(patterns.Default(),
		cfg.Tracker.Source, cfg.Tracker.Contact,
		cfg.Tracker.MaxCompanyLen, cfg.Tracker.MaxTitleLen)
	runner.DryRun = *dryRun

	task := func(ctx context.Context) error {
		return runPass(ctx, cfg, password, runner, backend, db)
	}

	if *once {
		if err := task(ctx); err != nil {
			log.Fatal(err)
		}
		return
	}

	iv := *interval
	if iv == 0 {
		iv = time.Duration(cfg.Tracker.IntervalSeconds) * time.Second
	}
	log.Printf("[tracker] polling every %s (data=%s)", iv, dir)
	scheduler.Every(ctx, iv, "tracker", task)
}

// managePassword stores or removes the keychain entry for the
// configured mailbox.
func managePassword(cfg config.Config, remove bool) error {
	if strings.TrimSpace(cfg.Email.Username) == "" {
		return errors.New("email.username must be set before managing the password")
	}
	account := secrets.IMAPKeyringAccount(cfg.Email.Username, cfg.Email.IMAPHost)

	if remove {
		if err := secrets.DeleteIMAPPassword(account); err != nil {
			return err
		}
		log.Printf("[tracker] removed stored password for %s", cfg.Email.Username)
		return nil
	}

	fmt.Fprintf(os.Stderr, "IMAP app password for %s: ", cfg.Email.Username)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	if err := secrets.SetIMAPPassword(account, strings.TrimSpace(line)); err != nil {
		return err
	}
	log.Printf("[tracker] stored password for %s", cfg.Email.Username)
	return nil
}

// runPass executes one full pass: connect, fetch mail and the tracked
// table concurrently, reconcile, then record outcomes and mark handled
// emails read.
func runPass(ctx context.Context, cfg config.Config, password string, runner *pass.Runner, backend sheet.Backend, db *store.DB) error {
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	client, err := mailbox.Dial(ctx, cfg.IMAPAddr(), cfg.Email.Username, password)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Select(cfg.Email.Mailbox); err != nil {
		return err
	}

	var (
		msgs []mailbox.Message
		snap *sheet.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		msgs, err = client.FetchCandidates(gctx, cfg.Email.Sender, cfg.Email.MaxEmails)
		return err
	})
	g.Go(func() error {
		var err error
		snap, err = backend.Fetch(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if len(msgs) == 0 {
		log.Printf("[tracker] no candidate emails")
		if runner.DryRun {
			return nil
		}
		return db.RecordPass(ctx, store.PassRecord{StartedAt: started, FinishedAt: time.Now()})
	}
	log.Printf("[tracker] %d candidate emails, %d tracked rows", len(msgs), len(snap.Rows))

	emails := make([]pass.Email, 0, len(msgs))
	for _, m := range msgs {
		// An unread email whose UID is already recorded as handled was
		// consumed by an earlier pass whose MarkSeen failed; processing
		// it again would double-insert.
		handled, err := db.HandledEmail(ctx, uint32(m.UID))
		if err != nil {
			return err
		}
		if handled {
			log.Printf("[tracker] uid=%d already handled, skipping", m.UID)
			continue
		}
		emails = append(emails, pass.Email{
			ID:       uint32(m.UID),
			Subject:  m.Subject,
			SentAt:   m.SentAt,
			HTMLBody: m.HTMLBody,
		})
	}

	report, runErr := runner.Run(ctx, emails, snap, backend)

	if !runner.DryRun {
		// Outcomes are recorded even when the flush failed; the demoted
		// dispositions carry the flush error.
		for _, o := range report.Outcomes {
			errText := ""
			if o.Err != nil {
				errText = o.Err.Error()
			}
			if err := db.RecordEmail(ctx, store.EmailRecord{
				UID:         o.EmailID,
				Subject:     o.Subject,
				Disposition: string(o.Disposition),
				Error:       errText,
			}); err != nil {
				log.Printf("[tracker] %v", err)
			}
		}

		passErrText := ""
		if runErr != nil {
			passErrText = runErr.Error()
		}
		if err := db.RecordPass(ctx, store.PassRecord{
			StartedAt:  report.StartedAt,
			FinishedAt: report.FinishedAt,
			Inserted:   report.Inserted,
			Updated:    report.Updated,
			Ignored:    report.Ignored,
			Skipped:    report.Skipped,
			Error:      passErrText,
		}); err != nil {
			log.Printf("[tracker] %v", err)
		}
	}

	if !runner.DryRun {
		var handled []imap.UID
		for _, o := range report.Outcomes {
			if o.Disposition.Handled() {
				handled = append(handled, imap.UID(o.EmailID))
			}
		}
		if err := client.MarkSeen(handled); err != nil {
			// Next pass re-reads these emails; inserts would then
			// duplicate, so surface it loudly.
			log.Printf("[tracker] mark seen failed, expect reprocessing: %v", err)
			runErr = errors.Join(runErr, err)
		}
	}

	log.Printf("[tracker] pass done: %s", report)
	return runErr
}
