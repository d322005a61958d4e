// Command relay runs a standalone WebSocket relay: it accepts connections
// from peer interfaces, validates and rebroadcasts announces, and
// optionally persists the announce cache to Redis or a local file.
// Grounded on the teacher's cmd/server/main.go and server/server.go.
package main

import (
	"encoding/hex"
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"reticulum-core/announce"
	"reticulum-core/config"
	"reticulum-core/ifac"
	"reticulum-core/netif/wsrelay"
	"reticulum-core/transport"
)

var logger = logrus.New()

func main() {
	cfg := config.Config{}

	addr := flag.String("addr", config.DefaultRelayAddress, "listen address")
	redisAddr := flag.String("redis", "", "redis address for announce cache durability (optional)")
	announceCachePath := flag.String("announce-cache-file", "", "local file for announce cache durability (optional, ignored if -redis set)")
	netname := flag.String("netname", "", "IFAC network name (optional)")
	netkey := flag.String("netkey", "", "IFAC network key (optional)")
	capacity := flag.Int("announce-cache-capacity", 0, "announce cache capacity (0 = default)")
	flag.Parse()

	cfg.Netname = *netname
	cfg.Netkey = *netkey
	cfg.AnnounceCacheCapacity = *capacity
	cfg.AnnounceCachePath = *announceCachePath

	creds, err := ifac.Derive(cfg.Netname, cfg.Netkey)
	if err != nil {
		logger.Fatalf("deriving IFAC credentials: %v", err)
	}
	if creds != nil {
		logger.WithField("ifac_id", hex.EncodeToString(creds.Identity().Hash())).Info("IFAC credentials active")
	} else {
		logger.Info("running without IFAC network isolation")
	}

	var persister announce.Persister
	if *redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		persister = announce.NewRedisPersister(client, "reticulum:announce:")
		logger.WithField("redis", *redisAddr).Info("announce cache backed by redis")
	} else if cfg.AnnounceCachePath != "" {
		fp, err := announce.OpenFilePersister(cfg.AnnounceCachePath)
		if err != nil {
			logger.Fatalf("opening announce cache file: %v", err)
		}
		defer fp.Close()
		persister = fp
		logger.WithField("path", cfg.AnnounceCachePath).Info("announce cache backed by file")
	}

	cache := announce.New(cfg.EffectiveAnnounceCacheCapacity(), persister)
	adapters := transport.NewAdapterCache()

	hub := wsrelay.NewHub(cache, adapters)
	hub.Log = logger
	hub.IFAC = creds

	r := mux.NewRouter()
	r.HandleFunc(config.DefaultWebSocketPath, hub.ServeHTTP)

	logger.Infof("relay listening on %s%s", *addr, config.DefaultWebSocketPath)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("relay exited: %v", err)
	}
}
