// cmd/watch.go - Polling watch command
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"trip-heatmap/internal/client"
	"trip-heatmap/internal/config"
	"trip-heatmap/internal/output"
	"trip-heatmap/internal/poller"
	"trip-heatmap/internal/render"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the source on an adjustable interval",
	Long: `Watch runs the query pipeline on a timer. Each tick fetches tiles, renders
a fresh overlay snapshot replacing the previous one, and writes a frame. A
tick that fires while the previous cycle is still in flight is dropped and
rescheduled; cycles never overlap. Transient fetch failures are logged and
the loop continues with the previous overlay intact.

Examples:
  # Poll a server every five seconds, writing timestamped overlays
  trip-heatmap watch --base-url http://localhost:8080 --interval 5000 --output-dir ./overlays

  # Watch the local generator, replacing a single file each tick
  trip-heatmap watch --interval 2000 --output-file overlay.geojson --lat1 1 --lon1 0 --lat2 0 --lon2 1`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Int("interval", 10000, "poll interval in milliseconds")
	watchCmd.Flags().Bool("immediate", true, "run the first cycle immediately")
	watchCmd.Flags().String("output-dir", "", "directory for timestamped per-frame files")
	watchCmd.Flags().String("output-file", "", "single file replaced on each frame")

	viperBind("poll.interval_ms", watchCmd, "interval")
	viperBind("poll.immediate", watchCmd, "immediate")
}

// watcher owns the mutable state of the polling loop. The snapshot handle is
// guarded by mu; stopped suppresses publication of results that resolve
// after shutdown began.
type watcher struct {
	source   client.Source
	renderer *render.Renderer
	writer   output.Writer
	cfg      *config.Config

	mu       sync.Mutex
	snapshot *render.Snapshot
	stopped  atomic.Bool
	logger   log.Interface
}

// cycle is the poller-driven callback
func (w *watcher) cycle(ctx context.Context) error {
	query, err := buildQuery(w.cfg)
	if err != nil {
		return err
	}

	tiles, err := w.source.Query(ctx, query)
	if err != nil {
		return err
	}

	// A fetch may resolve after shutdown; late results are discarded rather
	// than rendered over a released overlay.
	if w.stopped.Load() {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snapshot := w.renderer.Render(w.snapshot, tiles)
	w.snapshot = snapshot
	return w.writer.Write(&output.Frame{
		Query:    query,
		Tiles:    tiles,
		Snapshot: snapshot,
	})
}

// stop suppresses further publications and releases the current overlay
func (w *watcher) stop() {
	w.stopped.Store(true)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshot.Release()
	w.snapshot = nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	source, err := client.NewSourceFactory(cfg).CreateSource()
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	outputFile, _ := cmd.Flags().GetString("output-file")
	cfgCopy := *cfg
	if outputFile != "" {
		cfgCopy.Output.Filename = outputFile
		cfgCopy.Output.Stdout = false
	}
	writer, err := frameWriter(&cfgCopy, outputDir)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer writer.Close()

	w := &watcher{
		source:   source,
		renderer: render.NewRenderer(colorScale(cfg)),
		writer:   writer,
		cfg:      cfg,
		logger:   log.WithField("component", "watch"),
	}

	p := poller.New(cfg.PollInterval(), w.cycle)
	p.Start(cfg.Poll.Immediate)
	w.logger.WithField("interval", cfg.PollInterval().String()).Info("watching")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	w.logger.Info("shutting down")
	p.Dispose()
	w.stop()
	return nil
}
