// Package main provides the entry point for ts3-infodata.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/samcm/ts3-infodata/internal/bridge"
	"github.com/samcm/ts3-infodata/internal/config"
	"github.com/samcm/ts3-infodata/internal/discord"
	"github.com/samcm/ts3-infodata/internal/infodata"
	"github.com/samcm/ts3-infodata/internal/plugin"
	"github.com/samcm/ts3-infodata/internal/teamspeak"
)

var (
	configPath string
	dryRun     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ts3-infodata",
	Short: "Show TeamSpeak server, channel and client info text",
	Long:  "Builds the TeamSpeak info panel text for a server, channel or client over a ServerQuery connection.",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Print info text for the configured virtual server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd, infodata.ItemServer, 0)
	},
}

var channelCmd = &cobra.Command{
	Use:   "channel <channel-id>",
	Short: "Print info text for a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseItemID(infodata.ItemChannel, args[0])
		if err != nil {
			return err
		}

		return runInfo(cmd, infodata.ItemChannel, id)
	},
}

var clientCmd = &cobra.Command{
	Use:   "client <client-id>",
	Short: "Print info text for a connected client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseItemID(infodata.ItemClient, args[0])
		if err != nil {
			return err
		}

		return runInfo(cmd, infodata.ItemClient, id)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <server|channel|client> [id]",
	Short: "Keep a Discord message in sync with an item's info text",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runWatch,
}

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Print plugin identification",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printAbout(cmd.OutOrStdout(), plugin.DefaultMetadata)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	watchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print info text instead of publishing to Discord")

	rootCmd.AddCommand(serverCmd, channelCmd, clientCmd, watchCmd, aboutCmd)
}

// session is a loaded plugin bound to a connected TeamSpeak host.
type session struct {
	log    *logrus.Logger
	cfg    *config.Config
	ts     teamspeak.Service
	plugin *plugin.Plugin
}

func openSession(ctx context.Context) (*session, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	tsService := teamspeak.NewService(log, teamspeak.Config{
		Host:      cfg.TeamSpeak.Host,
		QueryPort: cfg.TeamSpeak.QueryPort,
		Username:  cfg.TeamSpeak.Username,
		Password:  cfg.TeamSpeak.Password,
		ServerID:  cfg.TeamSpeak.ServerID,
	})

	if err := tsService.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to TeamSpeak: %w", err)
	}

	p := plugin.New(log, plugin.DefaultMetadata, infodata.WithPingSettleDelay(cfg.Plugin.PingSettleDelay))
	p.SetHost(tsService)

	if status := p.Init(); status != plugin.InitSuccess {
		tsService.Stop()
		return nil, fmt.Errorf("plugin init failed with status %d", status)
	}

	p.RegisterPluginID(cfg.Plugin.ID)

	return &session{log: log, cfg: cfg, ts: tsService, plugin: p}, nil
}

func (s *session) close() {
	s.plugin.Shutdown()

	if err := s.ts.Stop(); err != nil {
		s.log.WithError(err).Warn("Error stopping TeamSpeak service")
	}
}

func (s *session) conn() infodata.ConnectionID {
	return infodata.ConnectionID(s.cfg.TeamSpeak.ServerID)
}

func runInfo(cmd *cobra.Command, kind infodata.ItemKind, id uint64) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	text, err := bridge.Render(ctx, s.plugin, s.conn(), id, kind)
	if err != nil {
		return fmt.Errorf("failed to build %s info: %w", kind, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)

	return nil
}

// parseItemID parses a command line item ID. Client IDs are 16 bit.
func parseItemID(kind infodata.ItemKind, raw string) (uint64, error) {
	bits := 64
	if kind == infodata.ItemClient {
		bits = 16
	}

	id, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q: %w", kind, raw, err)
	}

	return id, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	kind, err := infodata.ParseItemKind(args[0])
	if err != nil {
		return err
	}

	var id uint64
	if len(args) == 2 {
		id, err = parseItemID(kind, args[1])
		if err != nil {
			return err
		}
	} else if kind != infodata.ItemServer {
		return fmt.Errorf("%s requires an id", kind)
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	var sink bridge.Sink
	if dryRun {
		s.log.Info("Running in dry-run mode")
		sink = &stdoutSink{out: cmd.OutOrStdout()}
	} else {
		if err := s.cfg.ValidateDiscord(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		sink = discord.NewService(s.log, discord.Config{
			Token:     s.cfg.Discord.Token,
			ChannelID: s.cfg.Discord.ChannelID,
		})
	}

	bridgeService := bridge.NewService(s.log, bridge.Config{
		UpdateInterval: s.cfg.Watch.UpdateInterval,
		Connection:     s.conn(),
		ItemID:         id,
		Kind:           kind,
	}, s.plugin, sink)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			s.log.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := bridgeService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	if err := bridgeService.Stop(); err != nil {
		s.log.WithError(err).Warn("Error stopping bridge")
	}

	s.log.Info("Shutdown complete")

	return nil
}

// stdoutSink prints each published text, for dry runs.
type stdoutSink struct {
	out io.Writer
}

func (s *stdoutSink) Start(context.Context) error { return nil }
func (s *stdoutSink) Stop() error                 { return nil }

func (s *stdoutSink) Publish(_ context.Context, title, text string) error {
	rule := strings.Repeat("═", 62)

	fmt.Fprintf(s.out, "\n╔%s╗\n  %s\n╚%s╝\n%s\n", rule, title, rule, text)

	return nil
}

func printAbout(w io.Writer, meta plugin.Metadata) {
	fmt.Fprintf(w, "Name:        %s\n", meta.Name)
	fmt.Fprintf(w, "Version:     %s\n", meta.Version)
	fmt.Fprintf(w, "Author:      %s\n", meta.Author)
	fmt.Fprintf(w, "Description: %s\n", meta.Description)
	fmt.Fprintf(w, "API version: %d\n", meta.APIVersion)
	fmt.Fprintf(w, "Info title:  %s\n", meta.InfoTitle)
}
