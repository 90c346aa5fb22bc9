package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/npaolucci/upnext/internal/config"
	"github.com/npaolucci/upnext/internal/creds"
	"github.com/npaolucci/upnext/internal/episode"
	"github.com/npaolucci/upnext/internal/errmsg"
	"github.com/npaolucci/upnext/internal/playback"
	"github.com/npaolucci/upnext/internal/player"
	"github.com/npaolucci/upnext/internal/settings"
	"github.com/npaolucci/upnext/internal/store"
	syncpkg "github.com/npaolucci/upnext/internal/sync"
)

const usage = `usage: upnext <command> [args]

commands:
  add <file>...   add local audio files to the queue
  list            show the queue
  play            play the queue until it runs out
  next <file>     queue a file right after the current one
  clear           clear the queue, keeping the playing episode
  signin <email>  sign in to the sync server
  register <email> create a sync server account
`

type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *store.Store
	creds    *creds.Store
	settings *settings.Store
	auth     *syncpkg.Auth
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	a, err := initApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}
	defer a.store.Close()

	if err := a.run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	st, err := store.Open(cfg.DataDir, log)
	if err != nil {
		return nil, err
	}

	credStore, err := creds.New(st.DB())
	if err != nil {
		st.Close()
		return nil, err
	}
	settingStore, err := settings.New(st.DB())
	if err != nil {
		st.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		creds:    credStore,
		settings: settingStore,
	}
	if cfg.HasServerConfig() {
		client := syncpkg.NewClient(cfg.Server.SyncURL)
		a.auth = syncpkg.NewAuth(client, credStore, settingStore, storeSyncer{st, log}, log)
	}
	return a, nil
}

func (a *app) run(command string, args []string) error {
	switch command {
	case "add":
		return a.add(args, store.PositionLast)
	case "next":
		return a.add(args, store.PositionNext)
	case "list":
		return a.list()
	case "play":
		return a.play()
	case "clear":
		return a.clear()
	case "signin":
		return a.signIn(args)
	case "register":
		return a.register(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (a *app) add(paths []string, position int) error {
	if len(paths) == 0 {
		return fmt.Errorf("no files given")
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		ep := episode.NewUserEpisode(titleFromPath(path), path)
		if err := a.store.UpsertUserEpisode(ep); err != nil {
			return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpEpisodeSave, path, err))
		}
		if err := a.store.InsertAt(ep.Uuid, position, false); err != nil {
			return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpQueueAdd, path, err))
		}
		a.log.Info("queued", "title", ep.EpisodeTitle, "uuid", ep.Uuid)
	}
	return nil
}

func (a *app) list() error {
	episodes, err := a.store.ResolvedEpisodes(a.cfg.GetPlaybackConfig().QueueLimit)
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpQueueLoad, err))
	}
	if len(episodes) == 0 {
		fmt.Println("queue is empty")
		return nil
	}
	for i, ep := range episodes {
		fmt.Printf("%3d  %s\n", i+1, ep.Title())
	}
	return nil
}

func (a *app) play() error {
	episodes, err := a.store.ResolvedEpisodes(1)
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpQueueLoad, err))
	}
	if len(episodes) == 0 {
		fmt.Println("queue is empty")
		return nil
	}

	mgr := playback.NewManager(a.store, player.NewBeepEngine, a.cfg.GetPlaybackConfig().QueueLimit, a.log)
	defer mgr.Close()

	sub := mgr.Subscribe()
	if err := mgr.PlayNow(episodes[0]); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpPlaybackStart, err))
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigs:
			return mgr.Stop()
		case ev := <-sub.EpisodeChanged:
			fmt.Printf("playing: %s\n", ev.Title)
		case ev := <-sub.StateChanged:
			if ev.Current == playback.StateStopped {
				return nil
			}
		case ev := <-sub.Error:
			a.log.Error("playback error", "episode", ev.EpisodeUUID, "message", ev.Message)
		case <-sub.Done:
			return nil
		}
	}
}

func (a *app) clear() error {
	if err := a.store.DeleteAllExceptHead(); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpQueueClear, err))
	}
	return nil
}

func (a *app) signIn(args []string) error {
	if a.auth == nil {
		return fmt.Errorf("no sync server configured")
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: upnext signin <email>")
	}
	password, err := promptPassword()
	if err != nil {
		return err
	}
	result, err := a.auth.SignIn(args[0], password)
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpSignIn, err))
	}
	fmt.Printf("signed in as %s\n", result.Email)
	return nil
}

func (a *app) register(args []string) error {
	if a.auth == nil {
		return fmt.Errorf("no sync server configured")
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: upnext register <email>")
	}
	password, err := promptPassword()
	if err != nil {
		return err
	}
	result, err := a.auth.Register(args[0], password)
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpRegister, err))
	}
	fmt.Printf("account created for %s\n", result.Email)
	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// storeSyncer bridges the sign-in flow to the podcast store. The refresh
// itself is fire and forget here; the next sync run does the actual pull.
type storeSyncer struct {
	store *store.Store
	log   *slog.Logger
}

func (s storeSyncer) MarkAllUnsynced() error {
	return s.store.MarkAllPodcastsUnsynced()
}

func (s storeSyncer) Refresh(trigger string) error {
	s.log.Info("podcast refresh requested", "trigger", trigger)
	return nil
}
