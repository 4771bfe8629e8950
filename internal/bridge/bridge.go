// Package bridge periodically renders one item's info text and publishes it.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samcm/ts3-infodata/internal/infodata"
	"github.com/samcm/ts3-infodata/internal/plugin"
)

// ErrNoInfoData is returned when the plugin produced no info text.
var ErrNoInfoData = errors.New("plugin returned no info data")

// Config holds bridge configuration.
type Config struct {
	UpdateInterval time.Duration
	Connection     infodata.ConnectionID
	ItemID         uint64
	Kind           infodata.ItemKind
}

// Renderer produces info buffers; *plugin.Plugin implements it.
type Renderer interface {
	InfoData(ctx context.Context, conn infodata.ConnectionID, id uint64, kind infodata.ItemKind) *plugin.Buffer
	FreeMemory(buf *plugin.Buffer) error
}

// Sink receives rendered info text.
type Sink interface {
	Start(ctx context.Context) error
	Stop() error
	Publish(ctx context.Context, title, text string) error
}

// Service defines the bridge service interface.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
}

type service struct {
	log      logrus.FieldLogger
	cfg      Config
	renderer Renderer
	sink     Sink
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewService creates a new bridge service.
func NewService(log logrus.FieldLogger, cfg Config, renderer Renderer, sink Sink) Service {
	return &service{
		log:      log.WithField("component", "bridge"),
		cfg:      cfg,
		renderer: renderer,
		sink:     sink,
		done:     make(chan struct{}),
	}
}

// Start starts the sink, publishes once and begins the update loop.
func (s *service) Start(ctx context.Context) error {
	if err := s.sink.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sink: %w", err)
	}

	// Do initial update
	if err := s.update(ctx); err != nil {
		s.log.WithError(err).Warn("Initial update failed")
	}

	s.wg.Add(1)

	go s.loop(ctx)

	s.log.WithFields(logrus.Fields{
		"interval": s.cfg.UpdateInterval,
		"type":     s.cfg.Kind,
		"id":       s.cfg.ItemID,
	}).Info("Bridge started")

	return nil
}

// Stop stops the update loop and the sink.
func (s *service) Stop() error {
	close(s.done)
	s.wg.Wait()

	if err := s.sink.Stop(); err != nil {
		s.log.WithError(err).Warn("Failed to stop sink")
	}

	s.log.Info("Bridge stopped")

	return nil
}

// loop runs the periodic update loop.
func (s *service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.update(ctx); err != nil {
				s.log.WithError(err).Warn("Update failed")
			}
		}
	}
}

// update renders the configured item and publishes the text.
func (s *service) update(ctx context.Context) error {
	text, err := Render(ctx, s.renderer, s.cfg.Connection, s.cfg.ItemID, s.cfg.Kind)
	if err != nil {
		return err
	}

	s.log.WithField("bytes", len(text)).Debug("Rendered info data")

	if err := s.sink.Publish(ctx, Title(s.cfg.Kind, s.cfg.ItemID), text); err != nil {
		return fmt.Errorf("failed to publish info data: %w", err)
	}

	return nil
}

// Render asks the renderer for one info buffer, copies its text and frees it.
func Render(ctx context.Context, r Renderer, conn infodata.ConnectionID, id uint64, kind infodata.ItemKind) (string, error) {
	buf := r.InfoData(ctx, conn, id, kind)
	if buf == nil {
		return "", ErrNoInfoData
	}

	text := buf.String()

	if err := r.FreeMemory(buf); err != nil {
		return "", fmt.Errorf("failed to free info buffer: %w", err)
	}

	return text, nil
}

// Title names the item for display above its info text.
func Title(kind infodata.ItemKind, id uint64) string {
	switch kind {
	case infodata.ItemServer:
		return "Server"
	case infodata.ItemChannel:
		return fmt.Sprintf("Channel %d", id)
	case infodata.ItemClient:
		return fmt.Sprintf("Client %d", id)
	default:
		return kind.String()
	}
}
