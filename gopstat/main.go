package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/itohio/gopstat/pkg/config"
	"github.com/itohio/gopstat/pkg/export"
	"github.com/itohio/gopstat/pkg/live"
	"github.com/itohio/gopstat/pkg/log"
	"github.com/itohio/gopstat/pkg/pstat"
	"github.com/itohio/gopstat/pkg/session"
)

func main() {
	var (
		portFlag    = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag  = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag    = flag.Bool("mock", false, "Use mocked device instead of serial port")
		scanFlag    = flag.String("scan", "cv", "Scan technique: ca, cv, swv or dpv")
		cyclesFlag  = flag.Int("cycles", 0, "Cycle count override (0 = use config)")
		projectFlag = flag.String("project", "", "Project name override for output files")
		listFlag    = flag.Bool("list", false, "List available serial ports and exit")
		debugFlag   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	log.Init(*debugFlag)
	defer log.Sync()

	if *listFlag {
		ports, err := pstat.Ports()
		if err != nil {
			log.Errorf("failed to enumerate serial ports: %v", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *projectFlag != "" {
		cfg.Output.Project = *projectFlag
	}

	params, err := scanParams(cfg, *scanFlag, *cyclesFlag)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	if err := run(cfg, params, *mockFlag); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// scanParams selects the technique's parameter set from the config and
// applies command-line overrides.
func scanParams(cfg *config.Config, scan string, cycles int) (config.ScanParams, error) {
	var params config.ScanParams
	switch strings.ToLower(scan) {
	case "ca":
		p := cfg.Scans.CA
		if cycles > 0 {
			p.CycleCount = cycles
		}
		params = p
	case "cv":
		p := cfg.Scans.CV
		if cycles > 0 {
			p.CycleCount = cycles
		}
		params = p
	case "swv":
		p := cfg.Scans.SWV
		if cycles > 0 {
			p.CycleCount = cycles
		}
		params = p
	case "dpv":
		p := cfg.Scans.DPV
		if cycles > 0 {
			p.CycleCount = cycles
		}
		params = p
	default:
		return nil, fmt.Errorf("unknown scan technique %q (want ca, cv, swv or dpv)", scan)
	}
	return params, nil
}

func run(cfg *config.Config, params config.ScanParams, useMock bool) error {
	var dev pstat.Device
	if useMock {
		dev = pstat.NewMock(&cfg.Mock)
		log.Infof("using mocked device")
	} else {
		dev = pstat.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Session.LineBuffer)
	}

	if err := dev.Connect(); err != nil {
		if useMock {
			return fmt.Errorf("failed to connect to mocked device: %w", err)
		}
		return fmt.Errorf("failed to connect to %s: %w", cfg.Serial.Port, err)
	}
	defer dev.Close()
	if !useMock {
		log.Infof("connected to serial port %s", cfg.Serial.Port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := session.NewController(dev, cfg.Session.CompletionTimeout)
	go ctrl.Pump(ctx)

	if cfg.Live.Enabled {
		srv := live.New(cfg.Live.Addr, 0, ctrl.Snapshot)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Errorf("live server: %v", err)
			}
		}()
	}

	var store *export.Store
	if cfg.Output.ResultIndex != "" {
		var err error
		store, err = export.OpenStore(cfg.Output.ResultIndex)
		if err != nil {
			return fmt.Errorf("failed to open result index: %w", err)
		}
		defer store.Close()
	}

	orch, err := session.NewOrchestrator(ctrl, cfg.Output, store)
	if err != nil {
		return err
	}

	// First SIGINT aborts the running cycle; a second one exits hard.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warnf("interrupt received, aborting scan")
		if err := ctrl.Abort(); err != nil {
			cancel()
		}
		<-sigCh
		log.Errorf("second interrupt, exiting")
		os.Exit(1)
	}()

	n, err := orch.Run(ctx, params)
	if err != nil {
		if n > 0 {
			log.Warnf("run %s stopped after %d cycle(s): %v", orch.RunID(), n, err)
		}
		return err
	}
	log.Infof("run %s finished, %d cycle(s) persisted", orch.RunID(), n)
	return nil
}
