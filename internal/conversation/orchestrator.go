// Package conversation turns inbound WhatsApp messages into subscriber
// operations: it deduplicates deliveries, serializes turns per sender,
// accumulates partial signup data across messages, resolves which kid an
// edit applies to, and executes exactly one directory mutation per turn.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mydailysportsreport/whatsapp-bot/internal/dedup"
	"github.com/mydailysportsreport/whatsapp-bot/internal/directory"
	"github.com/mydailysportsreport/whatsapp-bot/internal/intent"
	"github.com/mydailysportsreport/whatsapp-bot/internal/observability/metrics"
	"github.com/mydailysportsreport/whatsapp-bot/internal/session"
	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

// extractorApology is returned when the extractor is unreachable or times
// out. The turn leaves no trace in the session, so the next message resumes
// the conversation exactly where it was.
const extractorApology = "Sorry, I'm having a moment. Try again in a sec! 🙏"

// IntentExtractor resolves one message (plus prior turns) into a reply and a
// candidate action.
type IntentExtractor interface {
	Extract(ctx context.Context, message string, history []intent.ChatMessage) (intent.Result, error)
}

// Orchestrator is the entry point for one inbound message. Everything it
// does to a session happens under that sender's lock, so two quick messages
// from one parent apply as a strict sequence.
type Orchestrator struct {
	dedup          dedup.Cache
	sessions       *session.Store
	extractor      IntentExtractor
	dispatcher     *Dispatcher
	dir            directory.Client
	extractTimeout time.Duration
	lookupTimeout  time.Duration
	metrics        *metrics.BotMetrics
	logger         *logging.Logger
}

// OrchestratorConfig wires the orchestrator. Metrics may be nil.
type OrchestratorConfig struct {
	Dedup          dedup.Cache
	Sessions       *session.Store
	Extractor      IntentExtractor
	Dispatcher     *Dispatcher
	Directory      directory.Client
	ExtractTimeout time.Duration
	LookupTimeout  time.Duration
	Metrics        *metrics.BotMetrics
	Logger         *logging.Logger
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	extractTimeout := cfg.ExtractTimeout
	if extractTimeout <= 0 {
		extractTimeout = 30 * time.Second
	}
	lookupTimeout := cfg.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		dedup:          cfg.Dedup,
		sessions:       cfg.Sessions,
		extractor:      cfg.Extractor,
		dispatcher:     cfg.Dispatcher,
		dir:            cfg.Directory,
		extractTimeout: extractTimeout,
		lookupTimeout:  lookupTimeout,
		metrics:        cfg.Metrics,
		logger:         logger,
	}
}

// Handle processes one inbound message and returns the reply to send. An
// empty reply means send nothing: the delivery was a duplicate the transport
// retried within the dedup window.
func (o *Orchestrator) Handle(ctx context.Context, sender, text, eventID string) string {
	if !o.dedup.Admit(ctx, eventID) {
		o.logger.Info("skipping duplicate message", "event_id", eventID)
		o.metrics.ObserveInbound("duplicate")
		return ""
	}

	var reply string
	o.sessions.With(sender, func(sess *session.Session) {
		reply = o.handleTurn(ctx, sender, text, sess)
	})
	o.metrics.ObserveInbound("handled")
	return reply
}

func (o *Orchestrator) handleTurn(ctx context.Context, sender, text string, sess *session.Session) string {
	o.loadKnownKids(ctx, sender, sess)

	msg := text + o.knownKidsNote(sess)

	ectx, cancel := context.WithTimeout(ctx, o.extractTimeout)
	start := time.Now()
	res, err := o.extractor.Extract(ectx, msg, sess.History)
	cancel()
	o.metrics.ObserveExtractorLatency(time.Since(start).Seconds())
	if err != nil {
		o.logger.Error("intent extraction failed", "error", err)
		return extractorApology
	}

	if len(res.Needs) > 0 {
		sess.PendingNeeds = res.Needs
	}
	sess.MergeDraft(res.Data)
	sess.AppendHistory(intent.ChatRoleUser, msg)
	sess.AppendHistory(intent.ChatRoleAssistant, res.Reply)

	return o.dispatcher.Dispatch(ctx, sender, sess, res)
}

// loadKnownKids fetches the sender's existing subscribers once per session
// and pre-seeds the draft email so returning parents are never re-asked for
// it. A failed fetch is retried on the next turn.
func (o *Orchestrator) loadKnownKids(ctx context.Context, sender string, sess *session.Session) {
	if sess.KidsLoaded {
		return
	}
	lctx, cancel := context.WithTimeout(ctx, o.lookupTimeout)
	defer cancel()
	kids, err := o.dir.FindByPhone(lctx, sender)
	if err != nil {
		o.logger.Error("known kids lookup failed", "sender", sender, "error", err)
		return
	}
	sess.KnownKids = kids
	sess.KidsLoaded = true
	if len(kids) > 0 {
		sess.MergeDraft(map[string]any{"email": kids[0].Email})
	}
}

// knownKidsNote tells the model, on the first turn only, which reports this
// phone is already linked to so it skips the email question.
func (o *Orchestrator) knownKidsNote(sess *session.Session) string {
	if len(sess.KnownKids) == 0 || len(sess.History) > 0 {
		return ""
	}
	names := make([]string, 0, len(sess.KnownKids))
	for _, k := range sess.KnownKids {
		names = append(names, k.Name)
	}
	return fmt.Sprintf(
		"\n[SYSTEM: This parent's phone is linked to these existing reports: %s (email: %s). "+
			"You do NOT need to ask for their email. For updates, you already know which kids they have.]",
		strings.Join(names, ", "), sess.KnownKids[0].Email,
	)
}
