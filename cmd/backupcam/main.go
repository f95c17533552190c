package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"backupcam/internal/capture"
	"backupcam/internal/detect"
	"backupcam/internal/eventlog"
	"backupcam/internal/guidelines"
	"backupcam/internal/pipeline"
	"backupcam/internal/source"
	"backupcam/internal/ws"
)

func main() {
	var (
		deviceF   = flag.Int("device", 0, "Capture device index for the initial source")
		fileF     = flag.String("file", "", "Video file to use as the initial source instead of a device")
		widthF    = flag.Int("width", 640, "Display width in pixels")
		heightF   = flag.Int("height", 480, "Display height in pixels")
		fpsF      = flag.Int("fps", capture.DefaultFPS, "Capture frame rate requested from the device")
		intervalF = flag.Duration("interval", 20*time.Millisecond, "Tick interval of the frame pipeline")
		listenF   = flag.String("listen", "127.0.0.1:8091", "Listen address for the alert WebSocket endpoint")
		dbF       = flag.String("db", "backupcam.db", "Path of the alert event database")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[backupcam] ", log.Ltime)

	display := pipeline.DisplaySize{Width: *widthF, Height: *heightF}

	// Enumerate sources up front so the operator sees what is available.
	registry := source.NewRegistry()
	entries, err := registry.ListSources()
	if errors.Is(err, source.ErrNoDevices) {
		logger.Printf("no capture devices found; only file sources will work")
	}
	for _, e := range entries {
		logger.Printf("source: %s", e.Label)
	}

	initial := source.Device(*deviceF)
	if *fileF != "" {
		ref, rerr := registry.ResolveFile(*fileF)
		if rerr != nil {
			logger.Fatalf("cannot use %s: %v", *fileF, rerr)
		}
		initial = ref
	}

	grabber := capture.NewGrabber(display, *fpsF, logger)
	pipe := pipeline.New(pipeline.Config{
		Display:  display,
		Grabber:  grabber,
		Renderer: guidelines.NewRenderer(),
		Detector: detect.NewEngine(),
		Logger:   logger,
	})

	store, err := eventlog.Open(*dbF)
	if err != nil {
		logger.Fatalf("cannot open event database: %v", err)
	}
	sink := eventlog.NewSink(store, logger)
	pipe.AddAlertSink(sink)

	hub := ws.NewAlertHub(logger)

	pipe.SetSource(initial)

	// Channel used by the signal handler and server goroutine to notify
	// the main goroutine when to stop.
	errc := make(chan error)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws/alerts", ws.Handler(hub, logger))
	srv := &http.Server{Addr: *listenF, Handler: mux}
	go func() {
		logger.Printf("alert endpoint listening on ws://%s/ws/alerts", *listenF)
		errc <- srv.ListenAndServe()
	}()

	// Tick driver. The presentation layer polls frames from here; this
	// binary only forwards alert transitions to the hub.
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(*intervalF)
		defer ticker.Stop()

		var last pipeline.AlertState
		lastMode := pipe.CurrentMode()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				if mode := pipe.CurrentMode(); mode != lastMode {
					hub.BroadcastMode(ws.ModeMessage{
						Mode:      mode.String(),
						Timestamp: time.Now(),
					})
					lastMode = mode
				}

				frame, alert := pipe.Tick()
				if alert.Active != last.Active || alert.Audible != last.Audible {
					hub.BroadcastAlert(ws.AlertMessage{
						Active:      alert.Active,
						Reason:      alert.Reason.String(),
						Audible:     alert.Audible,
						ProximityCm: alert.Proximity,
						Seq:         frame.Seq,
						Timestamp:   frame.Timestamp,
					})
				}
				last = alert

				if frame.Seq%500 == 0 {
					logger.Printf("tick %d mode=%s clients=%d",
						frame.Seq, pipe.CurrentMode(), hub.ClientCount())
				}
			}
		}
	}()

	logger.Printf("exiting (%v)", <-errc)

	close(stopCh)
	wg.Wait()
	srv.Close()
	hub.Close()
	if err := pipe.Close(); err != nil {
		logger.Printf("error releasing capture source: %v", err)
	}
	sink.Close()
	store.Close()
	logger.Println("exited")
}
