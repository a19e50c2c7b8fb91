// ABOUTME: Entry point for the SyncPlay demo client
// ABOUTME: Wires Transport, Manager, a simulated MediaPlayer, and the TUI together
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/go-syncplay/syncplay/internal/demoplayer"
	"github.com/go-syncplay/syncplay/internal/discovery"
	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/manager"
	"github.com/go-syncplay/syncplay/internal/playback"
	"github.com/go-syncplay/syncplay/internal/playerapi"
	"github.com/go-syncplay/syncplay/internal/queue"
	"github.com/go-syncplay/syncplay/internal/queuecore"
	"github.com/go-syncplay/syncplay/internal/settings"
	"github.com/go-syncplay/syncplay/internal/timesync"
	"github.com/go-syncplay/syncplay/internal/transport"
	"github.com/go-syncplay/syncplay/internal/ui"
	"github.com/go-syncplay/syncplay/internal/version"
)

var (
	serverAddr = flag.String("server", "", "SyncPlay server address host:port (skip mDNS discovery)")
	userID     = flag.String("user", "", "User ID for access-right lookups (default: hostname)")
	configFile = flag.String("config", "", "Path to a TOML settings file")
	logFile    = flag.String("log-file", "syncplay-demo.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Run headless, logging events instead of drawing the TUI")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if *noTUI {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		log.SetOutput(f)
	}

	user := *userID
	if user == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		user = hostname
	}

	log.Printf("Starting %s v%s as user %s", version.Product, version.Version, user)

	addr := *serverAddr
	if addr == "" {
		addr = discoverServer()
	}
	if addr == "" {
		fmt.Fprintln(os.Stderr, "no server address given and none discovered via mDNS; pass -server host:port")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := settings.New()
	if *configFile != "" {
		if err := cfg.LoadTOMLFile(*configFile); err != nil {
			log.Printf("settings: %v", err)
		}
	}

	player := demoplayer.New()
	adapter := playerapi.NewLocalAdapter(player)
	adapter.BindToPlayer()

	ts := timesync.New()

	client := transport.New(transport.Config{
		ServerAddr: addr,
		ClientID:   uuid.New().String(),
		UserID:     user,
		DeviceName: version.Product,
	})
	if err := client.Connect(ctx); err != nil {
		log.Fatalf("transport: connect failed: %v", err)
	}
	defer client.Close()

	pb := playback.New(adapter, ts, cfg, client)
	model := queue.New()

	var mgr *manager.Manager
	haltNotify := func() {
		if mgr != nil {
			mgr.HaltGroup()
		}
	}
	qc := queuecore.New(model, adapter, pb, ts, client, haltNotify)

	mgr = manager.New(user, manager.Deps{
		TimeSync:  ts,
		Playback:  pb,
		Queue:     model,
		QueueCore: qc,
		Adapter:   adapter,
	})
	mgr.Init(client)

	go pb.Run(ctx)
	ts.Start(ctx, 10*time.Second, client)
	defer ts.Stop()

	go pumpTransport(ctx, client, mgr)
	go pumpTimeSync(ctx, ts, mgr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("shutdown signal received")
		cancel()
	}()

	if *noTUI {
		runHeadless(ctx, mgr, pb)
		return
	}

	runTUI(ctx, cancel, mgr, pb, model, ts)
}

func discoverServer() string {
	mgr := discovery.NewManager(discovery.Config{ServiceName: "syncplay-demo"})
	if err := mgr.Browse(); err != nil {
		log.Printf("discovery: browse failed: %v", err)
		return ""
	}
	defer mgr.Stop()

	select {
	case srv := <-mgr.Servers():
		return fmt.Sprintf("%s:%d", srv.Host, srv.Port)
	case <-time.After(5 * time.Second):
		return ""
	}
}

// pumpTransport drains inbound commands and group updates onto Manager.
func pumpTransport(ctx context.Context, client *transport.Client, mgr *manager.Manager) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-client.Commands:
			mgr.ProcessCommand(cmd)
		case update := <-client.GroupUpdates:
			mgr.ProcessGroupUpdate(update)
		}
	}
}

// pumpTimeSync bridges TimeSync events into Manager's ready/lost transitions.
func pumpTimeSync(ctx context.Context, ts *timesync.TimeSync, mgr *manager.Manager) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ts.Events():
			if ev.Lost {
				mgr.OnTimeSyncLost()
				continue
			}
			mgr.OnTimeSyncUpdate()
		}
	}
}

func runHeadless(ctx context.Context, mgr *manager.Manager, pb *playback.Core) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-mgr.Events():
			log.Printf("manager event: %+v", ev)
		case ev := <-pb.Events():
			log.Printf("playback event: %+v", ev)
		}
	}
}

func runTUI(ctx context.Context, cancel context.CancelFunc, mgr *manager.Manager, pb *playback.Core, model *queue.Model, ts *timesync.TimeSync) {
	control := ui.NewControl()
	program, err := ui.Run(control)
	if err != nil {
		log.Fatalf("ui: %v", err)
	}

	go bridgeEvents(ctx, program, mgr, pb, model, ts)
	go bridgeControl(ctx, cancel, control, mgr)

	if _, err := program.Run(); err != nil {
		log.Printf("ui: program exited: %v", err)
	}
	cancel()
}

func bridgeControl(ctx context.Context, cancel context.CancelFunc, control *ui.Control, mgr *manager.Manager) {
	followingGroup := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-control.Quit:
			cancel()
			return
		case <-control.PlayPause:
			mgr.PlayPause()
		case <-control.ToggleFollow:
			followingGroup = !followingGroup
			if followingGroup {
				mgr.FollowGroup()
			} else {
				mgr.HaltGroup()
			}
		}
	}
}

// bridgeEvents forwards Manager/PlaybackCore events plus a periodic poll of
// TimeSync/queue state into ui.StatusMsg for the TUI to render.
func bridgeEvents(ctx context.Context, program *tea.Program, mgr *manager.Manager, pb *playback.Core, model *queue.Model, ts *timesync.TimeSync) {
	connected := true
	program.Send(ui.StatusMsg{Connected: &connected})

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			program.Send(pollStatus(pb, model, ts))

		case ev := <-mgr.Events():
			program.Send(statusFromGroupEvent(ev))

		case ev := <-pb.Events():
			program.Send(statusFromGroupEvent(ev))
		}
	}
}

func pollStatus(pb *playback.Core, model *queue.Model, ts *timesync.TimeSync) ui.StatusMsg {
	msg := ui.StatusMsg{
		PlaybackState:  pb.State().String(),
		CurrentItemID:  model.CurrentPlaylistItemID(),
		PlaylistLength: len(model.PlaylistAsItemIDs()),
		PlayingIndex:   model.CurrentIndex(),
	}
	if ts.Ready() {
		msg.SyncReady = true
		msg.SyncOffsetMs = ts.Offset().Milliseconds()
		msg.SyncPingMs = ts.Ping().Milliseconds()
	}
	return msg
}

// statusFromGroupEvent maps a facade-level GroupEvent (§6 "Emitted events")
// onto the subset of TUI state it carries.
func statusFromGroupEvent(ev events.GroupEvent) ui.StatusMsg {
	switch ev.Type {
	case events.Enabled:
		return ui.StatusMsg{EnabledSet: true, Enabled: true}
	case events.GroupStateChange:
		return ui.StatusMsg{LastMessage: fmt.Sprintf("group state: %s (%s)", ev.State, ev.Reason)}
	case events.Syncing:
		return ui.StatusMsg{SyncingActive: ev.Active, SyncingMethod: ev.Action}
	case events.ShowMessage:
		return ui.StatusMsg{LastMessage: ev.Key}
	case events.NotifyOSD:
		return ui.StatusMsg{LastMessage: ev.Action}
	default:
		return ui.StatusMsg{}
	}
}
