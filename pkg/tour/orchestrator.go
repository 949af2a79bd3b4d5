// Package tour drives the three-stage pipeline: identify, research, narrate.
package tour

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"ciceronego/pkg/codec"
	"ciceronego/pkg/config"
	"ciceronego/pkg/guide"
	"ciceronego/pkg/guide/imageutil"
	"ciceronego/pkg/model"
	"ciceronego/pkg/playback"
	"ciceronego/pkg/session"
)

// ErrRunInProgress is returned when RunTour is called while a run is in
// flight. Concurrent runs are rejected, never queued.
var ErrRunInProgress = errors.New("a tour is already in progress")

// ErrNothingToReplay is returned by Replay before the first completed run.
var ErrNothingToReplay = errors.New("no narration to replay")

// Journal persists completed tours. Satisfied by *store.Store.
type Journal interface {
	SaveTour(ctx context.Context, rec *model.TourRecord) error
}

// Enricher resolves supplementary landmark imagery. Satisfied by
// *wikipedia.Client.
type Enricher interface {
	ResolveTitle(ctx context.Context, name, lang string) (string, error)
	GetThumbnail(ctx context.Context, title, lang string) (string, error)
}

// Orchestrator owns one tour pipeline. All stage results flow into the
// session store; failures abort the run and surface a single error string.
type Orchestrator struct {
	caps     guide.Capabilities
	session  *session.Manager
	playback *playback.Manager
	journal  Journal
	enricher Enricher
	cfg      config.NarratorConfig

	mu         sync.Mutex
	running    bool
	generation string
}

// New creates an orchestrator. journal and enricher may be nil; both are
// best-effort side channels, not pipeline stages.
func New(caps guide.Capabilities, sess *session.Manager, pb *playback.Manager, journal Journal, enricher Enricher, cfg config.NarratorConfig) *Orchestrator {
	return &Orchestrator{
		caps:     caps,
		session:  sess,
		playback: pb,
		journal:  journal,
		enricher: enricher,
		cfg:      cfg,
	}
}

// Session exposes the state store for read-only consumers.
func (o *Orchestrator) Session() *session.Manager {
	return o.session
}

// begin reserves the pipeline for a new run and returns its generation ID.
func (o *Orchestrator) begin() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return "", ErrRunInProgress
	}
	// A completed run must be reset before a new capture; non-idle stages
	// reject the call rather than silently restarting the pipeline.
	if s := o.session.Stage(); s != model.StageIdle {
		return "", fmt.Errorf("%w: stage is %q", ErrRunInProgress, s)
	}
	o.running = true
	o.generation = uuid.NewString()
	return o.generation, nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// current reports whether gen is still the live generation. Reset bumps the
// generation, so results from before the reset are detected as stale.
func (o *Orchestrator) current(gen string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation == gen
}

// commit runs write only if gen is still the live generation, holding the
// generation lock for the duration. Reset needs the same lock to bump the
// generation, so a reset can never slip between the staleness check and
// the session write: either the write lands before the reset wipes it, or
// the write is skipped entirely.
func (o *Orchestrator) commit(gen string, write func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return false
	}
	write()
	return true
}

// fail records a stage failure unless the run has gone stale.
func (o *Orchestrator) fail(gen string, stage string, err error) {
	if !o.commit(gen, func() { o.session.Fail(err.Error()) }) {
		slog.Info("Tour: discarding stale failure", "stage", stage, "error", err)
		return
	}
	if guide.IsMalformedResponse(err) {
		slog.Error("Tour: stage returned malformed payload", "stage", stage, "error", err)
	} else {
		slog.Error("Tour: stage failed", "stage", stage, "error", err)
	}
}

// RunTour executes the full pipeline on the captured image. The call blocks
// until the run reaches ready or the error state. A second call while a run
// is in flight returns ErrRunInProgress.
func (o *Orchestrator) RunTour(ctx context.Context, imageBytes []byte) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	defer o.finish()

	return o.run(ctx, gen, imageBytes)
}

// StartTour begins a run without blocking. The precondition check happens
// synchronously, so callers learn about a rejected concurrent run
// immediately; the pipeline itself proceeds in the background and reports
// through the session store.
func (o *Orchestrator) StartTour(ctx context.Context, imageBytes []byte) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}

	go func() {
		defer o.finish()
		_ = o.run(ctx, gen, imageBytes)
	}()
	return nil
}

func (o *Orchestrator) run(ctx context.Context, gen string, imageBytes []byte) error {
	if max := o.cfg.MaxImageBytes; max > 0 && int64(len(imageBytes)) > max {
		err := fmt.Errorf("image too large: %d bytes (limit %d)", len(imageBytes), max)
		o.fail(gen, "identify", err)
		return err
	}

	prepared, mimeType, err := imageutil.Prepare(imageBytes)
	if err != nil {
		err = fmt.Errorf("could not read image: %w", err)
		o.fail(gen, "identify", err)
		return err
	}

	if !o.commit(gen, func() { o.session.StartIdentifying(prepared) }) {
		return nil
	}

	// Stage 1: identify
	landmark, err := o.caps.IdentifyLandmark(ctx, prepared, mimeType)
	if err != nil {
		o.fail(gen, "identify", err)
		return err
	}
	if !o.commit(gen, func() { o.session.StoreLandmark(landmark) }) {
		slog.Info("Tour: discarding stale identify result", "landmark", landmark.Name)
		return nil
	}
	slog.Info("Tour: landmark identified", "name", landmark.Name, "pois", len(landmark.PointsOfInterest))

	if o.enricher != nil && o.cfg.EnrichLandmark {
		go o.enrich(ctx, gen, landmark.Name)
	}

	// Stage 2: research
	history, err := o.caps.ResearchLandmark(ctx, landmark)
	if err != nil {
		o.fail(gen, "research", err)
		return err
	}
	if !o.commit(gen, func() { o.session.StoreHistory(history) }) {
		slog.Info("Tour: discarding stale research result", "landmark", landmark.Name)
		return nil
	}
	slog.Info("Tour: research complete", "landmark", landmark.Name, "sources", len(history.Sources))

	// Stage 3: narrate. The story is truncated to the payload cap before it
	// is sent; the cap is a hard size guard shared with the synthesis side.
	story := truncateStory(history.FullStory, o.cfg.MaxStoryChars)
	encoded, err := o.caps.SynthesizeNarration(ctx, landmark.Name, story)
	if err != nil {
		o.fail(gen, "narrate", err)
		return err
	}

	data, err := codec.DecodeBase64(encoded)
	if err != nil {
		o.fail(gen, "narrate", err)
		return err
	}
	buf := codec.DecodePCM16(data, codec.SampleRate)

	if !o.commit(gen, func() { o.session.StoreAudio(buf) }) {
		slog.Info("Tour: discarding stale narration", "landmark", landmark.Name)
		return nil
	}

	if err := o.playback.Play(buf, nil); err != nil {
		// Audio hardware trouble does not undo a completed run; the state
		// stays ready and Replay can retry playback.
		slog.Error("Tour: playback failed", "error", err)
	}

	o.recordTour(ctx, gen, landmark, history)
	return nil
}

// enrich fetches a thumbnail for the identified landmark off the critical
// path. Best-effort: every failure is only logged.
func (o *Orchestrator) enrich(ctx context.Context, gen, name string) {
	lang := primaryLanguage(o.cfg.TargetLanguage)

	title, err := o.enricher.ResolveTitle(ctx, name, lang)
	if err != nil || title == "" {
		slog.Debug("Tour: thumbnail lookup skipped", "landmark", name, "error", err)
		return
	}

	url, err := o.enricher.GetThumbnail(ctx, title, lang)
	if err != nil || url == "" {
		slog.Debug("Tour: no thumbnail found", "landmark", name, "error", err)
		return
	}

	if !o.commit(gen, func() { o.session.SetThumbnail(url) }) {
		return
	}
	slog.Debug("Tour: thumbnail attached", "landmark", name, "url", url)
}

// recordTour writes the completed run to the journal.
func (o *Orchestrator) recordTour(ctx context.Context, gen string, lm *model.LandmarkInfo, hist *model.DetailedHistory) {
	if o.journal == nil || !o.current(gen) {
		return
	}

	rec := &model.TourRecord{
		ID:          gen,
		Landmark:    lm.Name,
		Description: lm.ShortDescription,
		Story:       hist.FullStory,
		SourceCount: len(hist.Sources),
	}
	if err := o.journal.SaveTour(ctx, rec); err != nil {
		slog.Warn("Tour: failed to journal completed tour", "landmark", lm.Name, "error", err)
	}
}

// Reset stops playback and restores the initial state aggregate. An
// in-flight capability call is not aborted; its late result is discarded
// via the generation guard. Idempotent.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.generation = uuid.NewString()
	o.mu.Unlock()

	o.playback.StopAll()
	o.playback.Forget()
	o.session.Reset()
}

// Replay re-invokes the playback controller with the last stored buffer.
func (o *Orchestrator) Replay() error {
	if !o.playback.Replay(nil) {
		return ErrNothingToReplay
	}
	return nil
}

// truncateStory caps the narration payload at maxChars characters.
func truncateStory(story string, maxChars int) string {
	if maxChars <= 0 {
		return story
	}
	runes := []rune(story)
	if len(runes) <= maxChars {
		return story
	}
	return string(runes[:maxChars])
}

// primaryLanguage maps a BCP-47 tag like "en-US" to its language subtag.
func primaryLanguage(tag string) string {
	for i := 0; i < len(tag); i++ {
		if tag[i] == '-' || tag[i] == '_' {
			return tag[:i]
		}
	}
	if tag == "" {
		return "en"
	}
	return tag
}
