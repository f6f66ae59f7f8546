package main

import (
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/loufret/fivefret/chart"
	"github.com/loufret/fivefret/flagoracle"
	"github.com/loufret/fivefret/fret"
)

// inputQueue buffers fret.GameInput events arriving from a MIDI listener
// goroutine until the main loop's next tick folds them into the engine,
// guarded the way chase3718-lou-guitar/go/main.go's stateMu guards its
// onNote callback against the single frame-driver goroutine.
type inputQueue struct {
	mu     sync.Mutex
	events []fret.GameInput
}

func (q *inputQueue) push(in fret.GameInput) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, in)
}

func (q *inputQueue) drain() []fret.GameInput {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

// logger is the package-wide structured logger, matching fret.logger's and
// the teacher's initLogger setup in shape.
var logger = slog.Default()

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

var (
	chartPath  = kingpin.Arg("chart", "Path to a .chart file").Required().ExistingFile()
	track      = kingpin.Flag("track", "Track name inside the chart to play").Default("ExpertSingle").String()
	debug      = kingpin.Flag("debug", "enable debug logging (adds source location)").Bool()
	bot        = kingpin.Flag("bot", "synthesize ideal input instead of reading a controller").Bool()
	autoPlay   = kingpin.Flag("autoplay", "seed the flag store's AutoPlay=true for the session profile").Bool()
	midiFlag   = kingpin.Flag("midi", "read input from a MIDI five-fret controller").Bool()
	serialDev  = kingpin.Flag("serial", "LED fretboard serial device (empty disables the LED sink)").Default("").String()
	baud       = kingpin.Flag("baud", "LED fretboard serial baud rate").Default("115200").Int()
	httpAddr   = kingpin.Flag("http", "flag control plane listen address").Default(":8080").String()
	tickPeriod = kingpin.Flag("tick", "simulation tick period").Default("2ms").Duration()
)

var startTime time.Time

func nowSeconds() float64 {
	return time.Since(startTime).Seconds()
}

func main() {
	kingpin.Version("0.1.0")
	kingpin.Parse()

	initLogger(*debug)
	logger.Info("fretsim starting",
		"chart", *chartPath,
		"track", *track,
		"bot", *bot,
		"midi", *midiFlag,
		"serial", *serialDev,
		"http", *httpAddr,
	)

	c, err := chart.DecodeFile(*chartPath)
	if err != nil {
		logger.Error("chart decode failed", "err", err)
		os.Exit(1)
	}
	notes, ok := c.Tracks[*track]
	if !ok {
		logger.Error("track not found in chart", "track", *track)
		os.Exit(1)
	}

	profileID := uuid.New()
	store := flagoracle.NewStore()
	if *autoPlay {
		store.Set(profileID, fret.FlagAutoPlay, true)
	}

	server := flagoracle.NewServer(store)
	go func() {
		logger.Info("flag control plane listening", "addr", *httpAddr)
		if err := http.ListenAndServe(*httpAddr, server); err != nil {
			logger.Error("flag control plane stopped", "err", err)
		}
	}()

	score := fret.NewScoreKeeper()
	sinks := fret.MultiSink{score}

	var led *serialLEDSink
	if *serialDev != "" {
		led = openLEDSerial(*serialDev, *baud)
		defer led.Close()
		sinks = append(sinks, led)
	}

	engine := fret.NewEngine(notes, fret.DefaultEngineParameters(), store, profileID, sinks, *bot)

	startTime = time.Now()

	queue := &inputQueue{}
	var pendingInputs []fret.GameInput
	var watcher *midiWatcher
	if *midiFlag {
		w, err := newMIDIWatcher(
			queue.push,
			func() { logger.Warn("midi: controller disconnected, inputs paused") },
		)
		if err != nil {
			logger.Error("midi watcher init failed", "err", err)
			os.Exit(1)
		}
		defer w.Close()
		watcher = w
	}

	botSched := newBotScheduler(0.05)

	ticker := time.NewTicker(*tickPeriod)
	defer ticker.Stop()

	for range ticker.C {
		now := nowSeconds()

		if watcher != nil {
			watcher.Tick()
		}
		pendingInputs = append(pendingInputs, queue.drain()...)
		if *bot {
			botSched.ScheduleUpTo(notes, now)
			pendingInputs = append(pendingInputs, botSched.Due(now)...)
		}
		sort.Slice(pendingInputs, func(i, j int) bool { return pendingInputs[i].Time < pendingInputs[j].Time })

		pendingInputs = engine.ReduceInputs(pendingInputs, now)
		engine.Tick(now, c.Sync.TickAtTime(now))

		if engine.NoteIndex() >= len(notes) {
			logger.Info("session complete",
				"notes_hit", score.NotesHit,
				"notes_missed", score.NotesMissed,
				"best_combo", score.BestCombo,
				"score", score.Score,
			)
			return
		}
	}
}
