// Truck controller process: runs the periodic control tasks of one mining
// truck and, when enabled, the messaging bridge to the mine broker.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"MineTruck/internal/core"
	"MineTruck/internal/model"
	"MineTruck/internal/util"
)

func main() {
	id := flag.Int("id", 0, "truck id (positive integer)")
	cfgPath := flag.String("config", "", "path to YAML configuration")
	enableMQTT := flag.Bool("mqtt", false, "enable the messaging adapter")
	broker := flag.String("broker", "", "override broker address (e.g. tcp://localhost:1883)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	util.SetupLogging(*verbose)

	if *id <= 0 {
		log.Fatal("a positive -id is required")
	}

	cfg, err := model.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}

	truck := core.NewTruck(*id, cfg, core.Options{EnableMQTT: *enableMQTT})
	if err := truck.StartAll(); err != nil {
		log.Fatalf("start truck: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutdown requested")
	truck.StopAll()
}
