// Package plugin implements the TeamSpeak client plugin surface around the
// info formatter: identification, lifecycle, info data and memory release.
package plugin

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/samcm/ts3-infodata/internal/infodata"
)

// APIVersion is the plugin API version the TeamSpeak client must report.
const APIVersion = 22

// ErrNoHost is returned when the plugin is used before SetHost.
var ErrNoHost = errors.New("no host functions set")

// InitStatus is returned from Init.
type InitStatus int

const (
	InitSuccess InitStatus = 0
	InitFailure InitStatus = 1
	// InitFailureSilent unloads the plugin without the client's "failed to load" warning.
	InitFailureSilent InitStatus = -2
)

// ConfigureOffer tells the client whether the plugin has a settings dialog.
type ConfigureOffer int

const (
	ConfigureNone ConfigureOffer = iota
	ConfigureNewThread
	ConfigureQtThread
)

// Metadata identifies the plugin to the client.
type Metadata struct {
	Name        string
	Version     string
	Author      string
	Description string
	APIVersion  int
	InfoTitle   string
}

// DefaultMetadata is the identification reported by the info plugin.
var DefaultMetadata = Metadata{
	Name:        "Informations",
	Version:     "1",
	Author:      "shitty720",
	Description: "ganz viele Daten",
	APIVersion:  APIVersion,
	InfoTitle:   "Informations",
}

// Plugin is the explicit context for one loaded plugin instance.
type Plugin struct {
	log     logrus.FieldLogger
	meta    Metadata
	fmtOpts []infodata.Option

	mu        sync.Mutex
	host      infodata.Host
	formatter *infodata.Formatter
	id        string
	buffers   map[*Buffer]struct{}
}

// New creates a plugin. opts are passed to the formatter built in SetHost.
func New(log logrus.FieldLogger, meta Metadata, opts ...infodata.Option) *Plugin {
	l := log.WithField("component", "plugin")

	return &Plugin{
		log:     l,
		meta:    meta,
		fmtOpts: append([]infodata.Option{infodata.WithLogger(log)}, opts...),
		buffers: make(map[*Buffer]struct{}),
	}
}

// Metadata returns the plugin identification.
func (p *Plugin) Metadata() Metadata {
	return p.meta
}

// SetHost stores the host query interface for the rest of the plugin's life.
func (p *Plugin) SetHost(host infodata.Host) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.host = host
	p.formatter = infodata.NewFormatter(host, p.fmtOpts...)
}

// Init is called once after SetHost.
func (p *Plugin) Init() InitStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.host == nil {
		p.log.WithError(ErrNoHost).Error("Plugin init failed")
		return InitFailure
	}

	p.log.WithField("name", p.meta.Name).Info("Plugin initialized")

	return InitSuccess
}

// Shutdown releases the plugin ID and detaches from the host.
func (p *Plugin) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.buffers); n > 0 {
		p.log.WithField("outstanding", n).Warn("Shutting down with unreleased info buffers")
	}

	p.id = ""
	p.host = nil
	p.formatter = nil
	p.buffers = make(map[*Buffer]struct{})

	p.log.Info("Plugin shut down")
}

// RegisterPluginID stores a copy of the ID the client assigned to this plugin.
func (p *Plugin) RegisterPluginID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.id = string(append([]byte(nil), id...))
	p.log.WithField("plugin_id", p.id).Debug("Registered plugin ID")
}

// PluginID returns the ID stored by RegisterPluginID.
func (p *Plugin) PluginID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.id
}

// OffersConfigure reports that there is no settings dialog.
func (p *Plugin) OffersConfigure() ConfigureOffer {
	return ConfigureNone
}

// RequestAutoload reports that the plugin does not ask to be loaded automatically.
func (p *Plugin) RequestAutoload() bool {
	return false
}

// CommandKeyword returns the console command keyword; empty means none.
func (p *Plugin) CommandKeyword() string {
	return ""
}

// ProcessCommand reports every console command as handled.
func (p *Plugin) ProcessCommand(conn infodata.ConnectionID, command string) bool {
	p.log.WithFields(logrus.Fields{
		"conn":    conn,
		"command": command,
	}).Debug("Ignoring console command")

	return true
}

// CurrentServerConnectionChanged is called when the user switches server tabs.
func (p *Plugin) CurrentServerConnectionChanged(conn infodata.ConnectionID) {
	p.log.WithField("conn", conn).Debug("Current server connection changed")
}

// InfoTitle is the static title shown next to the info text.
func (p *Plugin) InfoTitle() string {
	return p.meta.InfoTitle
}

// InfoData formats the info text for an item and returns it as a buffer the
// caller must hand back to FreeMemory exactly once. It returns nil when the
// client should show nothing.
func (p *Plugin) InfoData(ctx context.Context, conn infodata.ConnectionID, id uint64, kind infodata.ItemKind) *Buffer {
	p.mu.Lock()
	formatter := p.formatter
	p.mu.Unlock()

	if formatter == nil {
		p.log.WithError(ErrNoHost).Warn("Info data requested before host was set")
		return nil
	}

	text, err := formatter.Format(ctx, conn, id, kind)
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"conn": conn,
			"id":   id,
			"type": kind,
		}).WithError(err).Debug("No info data")

		return nil
	}

	buf := newBuffer(text)

	p.mu.Lock()
	p.buffers[buf] = struct{}{}
	p.mu.Unlock()

	return buf
}

// FreeMemory releases a buffer returned by InfoData.
func (p *Plugin) FreeMemory(buf *Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.buffers[buf]; !ok {
		return ErrUnknownBuffer
	}

	delete(p.buffers, buf)
	buf.release()

	return nil
}

// Outstanding returns the number of buffers not yet released.
func (p *Plugin) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.buffers)
}
