package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/scrobz/scrobz/internal/app"
	"github.com/scrobz/scrobz/internal/config"
	"github.com/scrobz/scrobz/internal/history"
	"github.com/scrobz/scrobz/internal/logging"
	"github.com/scrobz/scrobz/internal/mediafile"
	"github.com/scrobz/scrobz/internal/scrobble"
	"github.com/scrobz/scrobz/internal/scrobble/cache"
)

var version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Scrobz - local scrobble submission cache

Usage: scrobz [options]

Options:
  -config string
        Path to config file (default: ~/.config/scrobz/config.toml)
  -user string
        Username owning the cache (overrides config)
  -version
        Print version and exit

Diagnostics:
  -doctor
        Check configuration and state directories

Cache:
  -list
        Print pending scrobbles and exit
  -add string
        Queue a scrobble for an audio file (reads its tags)
  -played string
        Play start time for -add, RFC3339 or "now" (default "now")
  -length int
        Track length in seconds for -add
  -ack
        Acknowledge all pending scrobbles as submitted
  -history int
        Print the most recent N journaled submissions
  -no-journal
        Do not record acknowledged scrobbles in the history journal

Examples:
  scrobz -user alice                          # Interactive inspector
  scrobz -user alice -list                    # Show what is pending
  scrobz -user alice -add song.mp3 -length 240
  scrobz -user alice -ack                     # Everything was submitted
`)
	}

	cfgPath := flag.String("config", "", "")
	user := flag.String("user", "", "")
	showVersion := flag.Bool("version", false, "")
	doctor := flag.Bool("doctor", false, "")
	list := flag.Bool("list", false, "")
	addFile := flag.String("add", "", "")
	played := flag.String("played", "now", "")
	lengthSecs := flag.Int("length", 0, "")
	ack := flag.Bool("ack", false, "")
	historyN := flag.Int("history", 0, "")
	noJournal := flag.Bool("no-journal", false, "")
	flag.Parse()

	if *showVersion {
		fmt.Println("scrobz", version)
		return
	}

	cfg, resolvedPath, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, logFile, err := logging.Setup()
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer logFile.Close()
	logger.Info("starting scrobz", slog.String("config", resolvedPath))

	username := *user
	if username == "" {
		username = cfg.Username
	}

	if *doctor {
		runDoctor(cfg, username)
		return
	}

	if *historyN > 0 {
		runHistory(cfg, *historyN)
		return
	}

	if username == "" {
		log.Fatal("no username: pass -user or set username in the config file")
	}

	c, err := cache.Open(username, cfg.Cache.Dir)
	if err != nil {
		log.Fatalf("open cache: %v", err)
	}
	c.SetProduct(cfg.Product)
	c.SetLogger(logger)

	journalOn := cfg.History.JournalEnabled() && !*noJournal

	switch {
	case *list:
		runList(c)
	case *addFile != "":
		runAdd(c, *addFile, *played, *lengthSecs)
	case *ack:
		runAck(c, cfg, journalOn)
	default:
		var journal *history.Store
		if journalOn {
			journal, err = history.Open(cfg.History.DB)
			if err != nil {
				log.Fatalf("open history: %v", err)
			}
			defer journal.Close()
		}
		p := tea.NewProgram(app.New(c, journal, logger), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			log.Fatalf("run ui: %v", err)
		}
	}
}

func runList(c *cache.Cache) {
	tracks := c.Tracks()
	if len(tracks) == 0 {
		fmt.Println("nothing pending")
		return
	}
	for i, t := range tracks {
		when := "unknown time"
		if !t.StartedAt.IsZero() {
			when = t.StartedAt.Local().Format(time.RFC3339)
		}
		fmt.Printf("%3d  %s - %s  (%s, %s)\n", i+1, t.Artist, t.Title, t.Duration(), when)
	}
	fmt.Printf("%d pending for %s (%s)\n", len(tracks), c.Username(), c.Path())
}

func runAdd(c *cache.Cache, path, played string, lengthSecs int) {
	startedAt := time.Now()
	if played != "" && played != "now" {
		var err error
		startedAt, err = time.Parse(time.RFC3339, played)
		if err != nil {
			log.Fatalf("parse -played: %v", err)
		}
	}

	track, err := mediafile.Read(path, startedAt, lengthSecs*1000)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	rejected, err := c.Add([]scrobble.Track{track})
	for _, r := range rejected {
		fmt.Printf("rejected %s - %s: %s\n", r.Track.Artist, r.Track.Title, r.Reason)
	}
	if err != nil {
		log.Fatalf("persist cache: %v", err)
	}
	if len(rejected) == 0 {
		fmt.Printf("cached %s - %s, %d pending\n", track.Artist, track.Title, c.Len())
	}
}

func runAck(c *cache.Cache, cfg *config.Config, journalOn bool) {
	tracks := c.Tracks()
	if len(tracks) == 0 {
		fmt.Println("nothing pending")
		return
	}

	if journalOn {
		journal, err := history.Open(cfg.History.DB)
		if err != nil {
			log.Fatalf("open history: %v", err)
		}
		defer journal.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := journal.Record(ctx, tracks); err != nil {
			log.Fatalf("journal submissions: %v", err)
		}
	}

	remaining, err := c.Remove(tracks)
	if err != nil {
		log.Fatalf("persist cache: %v", err)
	}
	fmt.Printf("acknowledged %d scrobbles, %d pending\n", len(tracks), remaining)
}

func runHistory(cfg *config.Config, limit int) {
	journal, err := history.Open(cfg.History.DB)
	if err != nil {
		log.Fatalf("open history: %v", err)
	}
	defer journal.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	entries, err := journal.List(ctx, limit)
	if err != nil {
		log.Fatalf("list history: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("no journaled submissions")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %s - %s\n", e.SubmittedAt.Local().Format("2006-01-02 15:04"), e.Track.Artist, e.Track.Title)
	}
}

func runDoctor(cfg *config.Config, username string) {
	fmt.Println("Scrobz doctor")
	ok := true

	stateDir, err := logging.StateDir()
	if err != nil {
		fmt.Printf("state dir: UNAVAILABLE (%v)\n", err)
		ok = false
	} else {
		fmt.Printf("state dir: OK (%s)\n", stateDir)
	}

	if username == "" {
		fmt.Println("username: NOT SET (pass -user or set username in config)")
		ok = false
	} else {
		fmt.Printf("username: OK (%s)\n", username)

		c, err := cache.Open(username, cfg.Cache.Dir)
		if err != nil {
			fmt.Printf("cache: FAILED (%v)\n", err)
			ok = false
		} else {
			fmt.Printf("cache: OK (%d pending at %s)\n", c.Len(), c.Path())
		}
	}

	if cfg.History.JournalEnabled() {
		journal, err := history.Open(cfg.History.DB)
		if err != nil {
			fmt.Printf("history: FAILED (%v)\n", err)
			ok = false
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			n, err := journal.Count(ctx)
			cancel()
			if err != nil {
				fmt.Printf("history: FAILED (%v)\n", err)
				ok = false
			} else {
				fmt.Printf("history: OK (%d journaled submissions)\n", n)
			}
			journal.Close()
		}
	}

	if !ok {
		os.Exit(1)
	}
}
