package www

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func (h *Handlers) handleConfig(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, "config")
	data["Config"] = h.engine.AppConfig()
	data["Saved"] = r.URL.Query().Get("saved")
	data["Error"] = r.URL.Query().Get("error")
	data["Status"] = h.engine.Status()
	h.render(w, "admin/config.html", data)
}

func (h *Handlers) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	section := r.FormValue("section")
	cfg := h.engine.AppConfig()

	cfg.Lock()
	switch section {
	case "inventory":
		cfg.Inventory.TransitionOnly = r.FormValue("transition_only") == "on"
		cfg.Inventory.LowStockEvents = r.FormValue("low_stock_events") == "on"
	case "messaging":
		cfg.Messaging.Backend = r.FormValue("msg_backend")
		if brokers := r.FormValue("kafka_brokers"); brokers != "" {
			cfg.Messaging.Kafka.Brokers = splitTrim(brokers, ",")
		} else {
			cfg.Messaging.Kafka.Brokers = []string{}
		}
		cfg.Messaging.Kafka.GroupID = r.FormValue("kafka_group_id")
		cfg.Messaging.MQTT.Broker = r.FormValue("mqtt_broker")
		if p, err := strconv.Atoi(r.FormValue("mqtt_port")); err == nil {
			cfg.Messaging.MQTT.Port = p
		}
		cfg.Messaging.MQTT.ClientID = r.FormValue("mqtt_client_id")
		cfg.Messaging.AMQP.URL = r.FormValue("amqp_url")
		cfg.Messaging.AMQP.Exchange = r.FormValue("amqp_exchange")
		if t := strings.TrimSpace(r.FormValue("events_topic")); t != "" {
			cfg.Messaging.EventsTopic = t
		}
		if d, err := time.ParseDuration(r.FormValue("outbox_drain_interval")); err == nil && d > 0 {
			cfg.Messaging.OutboxDrainInterval = d
		}
	case "redis":
		cfg.Redis.Address = r.FormValue("redis_address")
		cfg.Redis.Password = r.FormValue("redis_password")
		if d, err := strconv.Atoi(r.FormValue("redis_db")); err == nil {
			cfg.Redis.DB = d
		}
	default:
		cfg.Unlock()
		http.Error(w, "unknown section", http.StatusBadRequest)
		return
	}
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		log.Printf("config: save error: %v", err)
		http.Error(w, "Failed to save: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Redis changes take effect on restart.
	switch section {
	case "inventory":
		h.engine.ReconfigureInventory()
	case "messaging":
		h.engine.ReconfigureMessaging()
		h.engine.ReconfigureInventory()
	}

	log.Printf("config: %s section saved by %s", section, h.actor(r))
	http.Redirect(w, r, "/admin/config?saved="+section, http.StatusSeeOther)
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
