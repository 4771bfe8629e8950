// Package teamspeak provides an info data host backed by a TeamSpeak ServerQuery connection.
package teamspeak

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	ts3 "github.com/multiplay/go-ts3"
	"github.com/sirupsen/logrus"

	"github.com/samcm/ts3-infodata/internal/infodata"
)

// Config holds TeamSpeak connection settings.
type Config struct {
	Host      string
	QueryPort int
	Username  string
	Password  string
	ServerID  int
}

// Service defines the TeamSpeak service interface. Connection IDs passed to
// the host methods are virtual server IDs; zero selects the configured one.
type Service interface {
	infodata.Host

	Start(ctx context.Context) error
	Stop() error
}

type service struct {
	log      logrus.FieldLogger
	cfg      Config
	client   *ts3.Client
	current  int
	connInfo map[connKey]attributes
	mu       sync.Mutex
}

// NewService creates a new TeamSpeak service.
func NewService(log logrus.FieldLogger, cfg Config) Service {
	return &service{
		log:      log.WithField("component", "teamspeak"),
		cfg:      cfg,
		connInfo: make(map[connKey]attributes),
	}
}

// Start connects to the TeamSpeak server.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.QueryPort)
	s.log.WithField("address", addr).Info("Connecting to TeamSpeak server")

	client, err := ts3.NewClient(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to TeamSpeak: %w", err)
	}

	if err := client.Login(s.cfg.Username, s.cfg.Password); err != nil {
		client.Close()
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := client.Use(s.cfg.ServerID); err != nil {
		client.Close()
		return fmt.Errorf("failed to select virtual server %d: %w", s.cfg.ServerID, err)
	}

	s.client = client
	s.current = s.cfg.ServerID
	s.log.Info("Connected to TeamSpeak server")

	return nil
}

// Stop disconnects from the TeamSpeak server.
func (s *service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.client.Close()
		s.client = nil
		s.connInfo = make(map[connKey]attributes)
		s.log.Info("Disconnected from TeamSpeak server")
	}

	return nil
}

// ServerVariable reads a serverinfo property.
func (s *service) ServerVariable(ctx context.Context, conn infodata.ConnectionID, v infodata.Variable) (infodata.Value, error) {
	attrs, err := s.fetch(ctx, conn, ts3.NewCmd("serverinfo"))
	if err != nil {
		return infodata.Value{}, err
	}

	return attrs.value(v)
}

// ChannelVariable reads a channelinfo property.
func (s *service) ChannelVariable(ctx context.Context, conn infodata.ConnectionID, channelID uint64, v infodata.Variable) (infodata.Value, error) {
	attrs, err := s.fetch(ctx, conn, ts3.NewCmd("channelinfo").WithArgs(ts3.NewArg("cid", channelID)))
	if err != nil {
		return infodata.Value{}, err
	}

	return attrs.value(v)
}

// ClientVariable reads a clientinfo property.
func (s *service) ClientVariable(ctx context.Context, conn infodata.ConnectionID, clientID infodata.ClientID, v infodata.Variable) (infodata.Value, error) {
	attrs, err := s.fetch(ctx, conn, clientInfoCmd(clientID))
	if err != nil {
		return infodata.Value{}, err
	}

	return attrs.value(v)
}

// ConnectionVariable reads from connection info cached by RequestConnectionInfo.
func (s *service) ConnectionVariable(ctx context.Context, conn infodata.ConnectionID, clientID infodata.ClientID, v infodata.Variable) (infodata.Value, error) {
	s.mu.Lock()
	attrs, ok := s.connInfo[connKey{conn: conn, client: clientID}]
	s.mu.Unlock()

	if !ok {
		return infodata.Value{}, fmt.Errorf("no connection info requested for client %d", clientID)
	}

	return attrs.value(v)
}

// OwnClientID returns the client ID of the query session.
func (s *service) OwnClientID(ctx context.Context, conn infodata.ConnectionID) (infodata.ClientID, error) {
	attrs, err := s.fetch(ctx, conn, ts3.NewCmd("whoami"))
	if err != nil {
		return 0, err
	}

	raw, ok := attrs["client_id"]
	if !ok {
		return 0, fmt.Errorf("%w: client_id", infodata.ErrVariableUnavailable)
	}

	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid client_id %q: %w", raw, err)
	}

	return infodata.ClientID(id), nil
}

// RequestConnectionInfo snapshots the client's connection properties.
func (s *service) RequestConnectionInfo(ctx context.Context, conn infodata.ConnectionID, clientID infodata.ClientID) error {
	attrs, err := s.fetch(ctx, conn, clientInfoCmd(clientID))
	if err != nil {
		return fmt.Errorf("failed to request connection info: %w", err)
	}

	attrs = attrs.clone()

	// The query session reaches the server at the configured host.
	attrs["connection_server_ip"] = s.cfg.Host

	s.mu.Lock()
	s.connInfo[connKey{conn: conn, client: clientID}] = attrs
	s.mu.Unlock()

	return nil
}

// CleanUpConnectionInfo drops the snapshot taken by RequestConnectionInfo.
func (s *service) CleanUpConnectionInfo(ctx context.Context, conn infodata.ConnectionID, clientID infodata.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.connInfo, connKey{conn: conn, client: clientID})

	return nil
}

func clientInfoCmd(clientID infodata.ClientID) *ts3.Cmd {
	return ts3.NewCmd("clientinfo").WithArgs(ts3.NewArg("clid", int(clientID)))
}

// fetch runs cmd against the virtual server selected by conn. Replies are
// shared through the Format call's cache.
func (s *service) fetch(ctx context.Context, conn infodata.ConnectionID, cmd *ts3.Cmd) (attributes, error) {
	serverID := s.cfg.ServerID
	if conn != 0 {
		serverID = int(conn)
	}

	line := strings.TrimSpace(cmd.String())

	return cached(ctx, fmt.Sprintf("%d/%s", serverID, line), func() (attributes, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.client == nil {
			return nil, fmt.Errorf("not connected to TeamSpeak server")
		}

		if serverID != s.current {
			if err := s.client.Use(serverID); err != nil {
				return nil, fmt.Errorf("failed to select virtual server %d: %w", serverID, err)
			}

			s.current = serverID
		}

		// Without a response target go-ts3 returns the raw reply lines.
		lines, err := s.client.ExecCmd(cmd)
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w", line, err)
		}

		attrs, err := parseReply(lines)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", line, err)
		}

		return attrs, nil
	})
}
