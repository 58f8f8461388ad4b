package engine

import (
	"log"
	"time"

	"fabrica/config"
	"fabrica/inventory"
	"fabrica/messaging"
	"fabrica/stockstate"
	"fabrica/store"
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	StockState *stockstate.Manager
	MsgClient  *messaging.Client // nil when messaging is disabled
	LogFunc    LogFunc
}

type Engine struct {
	cfg            *config.Config
	configPath     string
	db             *store.DB
	inventory      *inventory.Service
	stockState     *stockstate.Manager
	msgClient      *messaging.Client
	consumer       *messaging.Consumer
	Events         *EventBus
	logFn          LogFunc
	stopChan       chan struct{}
	msgConnected   bool
	cacheConnected bool
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	stock := c.StockState
	if stock == nil {
		stock = stockstate.NewManager(c.DB, nil)
	}
	app := c.AppConfig
	return &Engine{
		cfg:        app,
		configPath: c.ConfigPath,
		db:         c.DB,
		inventory:  inventory.New(c.DB, inventoryConfig(app)),
		stockState: stock,
		msgClient:  c.MsgClient,
		Events:     NewEventBus(),
		logFn:      logFn,
		stopChan:   make(chan struct{}),
	}
}

func (e *Engine) Start() {
	e.wireEventHandlers()

	if e.msgClient != nil && e.msgClient.IsConnected() {
		e.consumer = messaging.NewConsumer(e.msgClient, e.cfg.Messaging.EventsTopic, e.cfg.Messaging.SourceID, e.handlePeerEvent)
		if err := e.consumer.Start(); err != nil {
			e.logFn("engine: subscribe to %s: %v", e.cfg.Messaging.EventsTopic, err)
		} else {
			e.logFn("engine: listening for peer events on %s", e.cfg.Messaging.EventsTopic)
		}
	}

	e.checkConnectionStatus()
	go e.connectionHealthLoop()

	e.logFn("engine: started")
}

func (e *Engine) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
	e.logFn("engine: stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                   { return e.db }
func (e *Engine) AppConfig() *config.Config       { return e.cfg }
func (e *Engine) ConfigPath() string              { return e.configPath }
func (e *Engine) Inventory() *inventory.Service   { return e.inventory }
func (e *Engine) StockState() *stockstate.Manager { return e.stockState }
func (e *Engine) MsgClient() *messaging.Client    { return e.msgClient }

// Status summarizes connectivity for the health endpoint.
type Status struct {
	Messaging bool `json:"messaging"`
	Cache     bool `json:"cache"`
}

func (e *Engine) Status() Status {
	return Status{
		Messaging: e.msgClient != nil && e.msgClient.IsConnected(),
		Cache:     e.stockState.Cached() && e.stockState.Ping() == nil,
	}
}

func (e *Engine) checkConnectionStatus() {
	st := e.Status()

	if e.msgClient != nil {
		if st.Messaging && !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: e.msgClient.Backend() + " connected"}})
		} else if !st.Messaging && e.msgConnected {
			e.msgConnected = false
			e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
		}
	}

	if e.stockState.Cached() {
		if st.Cache && !e.cacheConnected {
			e.cacheConnected = true
			e.Events.Emit(Event{Type: EventCacheConnected, Payload: ConnectionEvent{Detail: "redis connected"}})
		} else if !st.Cache && e.cacheConnected {
			e.cacheConnected = false
			e.Events.Emit(Event{Type: EventCacheDisconnected, Payload: ConnectionEvent{Detail: "redis unreachable, reading stock from SQL"}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}

// inventoryConfig snapshots the inventory settings under the config read lock.
func inventoryConfig(app *config.Config) inventory.Config {
	app.RLock()
	defer app.RUnlock()
	return inventory.Config{
		TransitionOnly: app.Inventory.TransitionOnly,
		LowStockEvents: app.Inventory.LowStockEvents,
		Outbox:         app.Messaging.Enabled,
		EventsTopic:    app.Messaging.EventsTopic,
		SourceID:       app.Messaging.SourceID,
	}
}

// ReconfigureInventory applies the current inventory settings to later saves.
func (e *Engine) ReconfigureInventory() {
	ic := inventoryConfig(e.cfg)
	e.inventory.Configure(ic)
	e.logFn("engine: inventory reconfigured (transition_only=%v)", ic.TransitionOnly)
}

// ReconfigureMessaging reconnects messaging with current config.
func (e *Engine) ReconfigureMessaging() {
	if e.msgClient == nil {
		return
	}
	if err := e.msgClient.Reconfigure(&e.cfg.Messaging); err != nil {
		e.logFn("engine: messaging reconfigure error: %v", err)
	} else {
		e.logFn("engine: messaging reconfigured")
	}
	e.checkConnectionStatus()
}
