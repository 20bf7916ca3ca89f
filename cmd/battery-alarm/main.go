// Command battery-alarm samples a supply voltage and shows its level on a
// blinking tri-color indicator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sweeney/battery-alarm/internal/adc"
	"github.com/sweeney/battery-alarm/internal/config"
	"github.com/sweeney/battery-alarm/internal/gpio"
	"github.com/sweeney/battery-alarm/internal/kernel"
	"github.com/sweeney/battery-alarm/internal/logic"
	"github.com/sweeney/battery-alarm/internal/monitor"
	"github.com/sweeney/battery-alarm/internal/periph"
	"github.com/sweeney/battery-alarm/internal/status"
)

func main() {
	configPath := flag.String("config", "/etc/battery-alarm.yaml", "Board configuration file")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	printState := flag.Bool("print-state", false, "Print the classification of the current reading and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, *heartbeat, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, heartbeat time.Duration, printState bool) error {
	table, err := cfg.Table()
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return fmt.Errorf("threshold table %s: %w", cfg.Thresholds.Table, err)
	}

	conv := adc.NewSerialConverter(cfg.Converter.Port, cfg.Converter.BaudRate)
	if err := conv.Open(); err != nil {
		return fmt.Errorf("init converter: %w", err)
	}
	defer conv.Close()

	if printState {
		return printCurrentState(os.Stdout, conv, table, 2*time.Second)
	}

	writer, err := gpio.NewRealWriter(cfg.GPIO.Chip, cfg.Pins(), cfg.GPIO.ActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer writer.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		SamplePeriodMs: periph.BusClock.Period(periph.SampleModulo).Milliseconds(),
		HeartbeatMs:    heartbeat.Milliseconds(),
		Chip:           cfg.GPIO.Chip,
		Port:           cfg.Converter.Port,
		BaudRate:       cfg.Converter.BaudRate,
		Table:          cfg.Thresholds.Table,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case s := <-sigCh:
			log.Printf("received %v, shutting down", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	return runSystem(ctx, conv, writer, table, tracker, periph.BusClock, heartbeat)
}

// runSystem wires the acquisition chain and runs the control task until ctx
// is cancelled. Outputs are left low on return.
func runSystem(ctx context.Context, conv adc.Converter, out gpio.Writer, table logic.Thresholds, tracker *status.Tracker, clock periph.Clock, heartbeat time.Duration) error {
	sem := kernel.NewSemaphore()
	cell := &periph.Cell{}
	engine := periph.NewTransferEngine()
	bridge := monitor.NewBridge(sem, engine)

	err := engine.Program(periph.Descriptor{
		Source:     conv,
		Dest:       cell,
		Width:      periph.ElementWidth,
		Count:      1,
		AutoReload: true,
		OnComplete: bridge.TransferComplete,
	})
	if err != nil {
		return fmt.Errorf("program transfer engine: %w", err)
	}

	wave := periph.NewWaveTimer(clock, out, &kernel.Critical{}, monitor.ColorLine(logic.InitialColor))
	mon := monitor.New(sem, cell, logic.NewClassifier(table, time.Now()), wave, monitor.Options{
		Tracker:   tracker,
		Heartbeat: heartbeat,
		Transfers: func() status.TransferStats {
			s := engine.Stats()
			return status.TransferStats{Transfers: s.Transfers, Dropped: s.Dropped, SourceErrors: s.SourceErrors}
		},
	})
	if err := mon.Start(); err != nil {
		return fmt.Errorf("start outputs: %w", err)
	}

	trigger := periph.NewTrigger(clock, periph.SampleModulo)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		wave.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := trigger.Run(ctx, engine.Request); err != nil {
			log.Printf("sampling trigger: %v", err)
			cancel()
		}
	}()

	log.Printf("started: sample_period=%v heartbeat=%v", trigger.Period(), heartbeat)

	err = mon.Run(ctx)
	cancel()
	wg.Wait()

	if clearErr := wave.Clear(); clearErr != nil {
		log.Printf("clear outputs: %v", clearErr)
	}
	s := engine.Stats()
	log.Printf("stopped: transfers=%d dropped=%d source_errors=%d", s.Transfers, s.Dropped, s.SourceErrors)
	return err
}

// printCurrentState waits for a converter result, classifies it from the
// initial tiers and writes the resulting status as JSON.
func printCurrentState(w io.Writer, conv periph.ResultRegister, table logic.Thresholds, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		sample, err := conv.Result()
		if err == nil {
			now := time.Now()
			classifier := logic.NewClassifier(table, now)
			classifier.Classify(logic.Input{Sample: sample, Time: now})

			tracker := status.NewTracker(now, status.Config{})
			blink, color := classifier.Current()
			tracker.Update(sample, blink, color, classifier.Counts())

			_, err = fmt.Fprintf(w, "%s\n", status.FormatJSON(tracker.Snapshot()))
			return err
		}
		if !errors.Is(err, adc.ErrNoResult) || time.Now().After(deadline) {
			return fmt.Errorf("read converter: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
