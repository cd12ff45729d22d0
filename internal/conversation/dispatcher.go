package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mydailysportsreport/whatsapp-bot/internal/directory"
	"github.com/mydailysportsreport/whatsapp-bot/internal/intent"
	"github.com/mydailysportsreport/whatsapp-bot/internal/notify"
	"github.com/mydailysportsreport/whatsapp-bot/internal/observability/metrics"
	"github.com/mydailysportsreport/whatsapp-bot/internal/reports"
	"github.com/mydailysportsreport/whatsapp-bot/internal/session"
	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

const (
	replySaveFailed      = "Hmm, something went wrong saving that. Could you try again?"
	replyNoLinkedReport  = "I couldn't find an active report linked to this number. What email is the report under?"
	replyUnsubscribeMiss = "I couldn't find that subscription. It may already be inactive."
	replyLookupEmpty     = "No active reports found for that email."
)

// Dispatcher executes the side effect a resolved action calls for. Per turn
// it makes at most one mutating directory call; the report trigger and the
// operator notification run detached and best-effort.
type Dispatcher struct {
	dir         directory.Client
	trigger     reports.Trigger
	operator    *notify.Service
	settingsURL string
	timeout     time.Duration
	metrics     *metrics.BotMetrics
	logger      *logging.Logger
}

// DispatcherConfig wires the dispatcher's collaborators. Trigger, Operator,
// and Metrics may be nil; the matching side effects are then skipped.
type DispatcherConfig struct {
	Directory   directory.Client
	Trigger     reports.Trigger
	Operator    *notify.Service
	SettingsURL string
	Timeout     time.Duration
	Metrics     *metrics.BotMetrics
	Logger      *logging.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		dir:         cfg.Directory,
		trigger:     cfg.Trigger,
		operator:    cfg.Operator,
		settingsURL: strings.TrimRight(cfg.SettingsURL, "/"),
		timeout:     timeout,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// Dispatch runs the action the extractor resolved for this turn and returns
// the final reply text. It is called with the sender's session lock held; the
// session draft is only cleared on a successful create, so a failed mutation
// leaves everything in place for the next message to retry.
func (d *Dispatcher) Dispatch(ctx context.Context, sender string, sess *session.Session, res intent.Result) string {
	switch res.Action {
	case intent.ActionCreate:
		return d.dispatchCreate(ctx, sender, sess, res.Reply)
	case intent.ActionUpdate:
		return d.dispatchUpdate(ctx, sess, res)
	case intent.ActionUnsubscribe:
		return d.dispatchUnsubscribe(ctx, res)
	case intent.ActionLookup:
		return d.dispatchLookup(ctx, res)
	case intent.ActionFeatureRequest:
		return d.dispatchFeatureRequest(sender, sess, res)
	default:
		return res.Reply
	}
}

// dispatchCreate inserts a subscriber once the accumulated draft has both a
// name and an email. Until then the extractor's own prompt for the missing
// field is the whole turn.
func (d *Dispatcher) dispatchCreate(ctx context.Context, sender string, sess *session.Session, reply string) string {
	if sess.DraftString("name") == "" || sess.DraftString("email") == "" {
		d.metrics.ObserveAction("create", "incomplete")
		return reply
	}

	fields := make(map[string]any, len(sess.Draft)+1)
	for k, v := range sess.Draft {
		fields[k] = v
	}
	fields["phone"] = sender

	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	sub, err := d.dir.Create(cctx, fields)
	if err != nil {
		d.logger.Error("subscriber create failed", "error", err)
		d.metrics.ObserveDispatchError("create")
		return replySaveFailed
	}

	sess.KnownKids = append(sess.KnownKids, *sub)
	if sub.ID != "" {
		reply += fmt.Sprintf(
			"\n\n📎 If you'd like to review your selections, reorder sections, or make changes, use this link anytime: %s",
			d.manageURL(sub.ID),
		)
		d.fireTrigger(sub.ID)
	}
	sess.ClearDraft()
	d.metrics.ObserveAction("create", "dispatched")
	d.logger.Info("subscriber created", "subscriber_id", sub.ID, "name", sub.Name)
	return reply
}

// dispatchUpdate patches the resolved kid's record with this turn's fields.
// email, name, and id identify the target; they are stripped from the patch
// and never mutated through this path.
func (d *Dispatcher) dispatchUpdate(ctx context.Context, sess *session.Session, res intent.Result) string {
	if len(res.Data) == 0 {
		d.metrics.ObserveAction("update", "incomplete")
		return res.Reply
	}

	email := stringField(res.Data, "email")
	if email == "" {
		email = sess.DraftString("email")
	}
	candidates := sess.KnownKids
	if len(candidates) == 0 && email != "" {
		fctx, cancel := context.WithTimeout(ctx, d.timeout)
		found, err := d.dir.FindByEmail(fctx, email)
		cancel()
		if err != nil {
			d.logger.Error("update candidate lookup failed", "error", err)
		}
		candidates = found
	}
	if len(candidates) == 0 {
		d.metrics.ObserveAction("update", "no_candidates")
		return replyNoLinkedReport
	}

	candidate := stringField(res.Data, "name")
	if candidate == "" {
		candidate = sess.DraftString("name")
	}
	target, outcome := ResolveTarget(candidate, candidates)
	if outcome != Resolved {
		// The extractor's reply is the clarification prompt; nothing mutates.
		d.metrics.ObserveAction("update", outcome.String())
		return res.Reply
	}
	sess.MergeDraft(map[string]any{"name": target.Name})

	fields := make(map[string]any, len(res.Data))
	for k, v := range res.Data {
		if k == "email" || k == "name" || k == "id" || v == nil {
			continue
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		d.metrics.ObserveAction("update", "empty")
		return res.Reply
	}

	uctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.dir.Update(uctx, target.ID, fields); err != nil {
		d.logger.Error("subscriber update failed", "subscriber_id", target.ID, "error", err)
		d.metrics.ObserveDispatchError("update")
		return replySaveFailed
	}
	d.metrics.ObserveAction("update", "dispatched")
	d.logger.Info("subscriber updated", "subscriber_id", target.ID, "fields", len(fields))
	return res.Reply
}

func (d *Dispatcher) dispatchUnsubscribe(ctx context.Context, res intent.Result) string {
	email := stringField(res.Data, "email")
	name := stringField(res.Data, "name")
	if email == "" && name == "" {
		d.metrics.ObserveAction("unsubscribe", "incomplete")
		return res.Reply
	}

	uctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	matched, err := d.dir.Deactivate(uctx, email, name)
	if err != nil {
		d.logger.Error("subscriber deactivate failed", "error", err)
		d.metrics.ObserveDispatchError("unsubscribe")
		return replySaveFailed
	}
	if !matched {
		d.metrics.ObserveAction("unsubscribe", "no_match")
		return replyUnsubscribeMiss
	}
	d.metrics.ObserveAction("unsubscribe", "dispatched")
	return res.Reply
}

func (d *Dispatcher) dispatchLookup(ctx context.Context, res intent.Result) string {
	email := stringField(res.Data, "email")
	if email == "" {
		d.metrics.ObserveAction("lookup", "incomplete")
		return res.Reply
	}

	lctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	subs, err := d.dir.FindByEmail(lctx, email)
	if err != nil {
		d.logger.Error("subscriber lookup failed", "error", err)
	}
	if len(subs) == 0 {
		d.metrics.ObserveAction("lookup", "empty")
		return replyLookupEmpty
	}

	lines := make([]string, 0, len(subs))
	for _, s := range subs {
		lines = append(lines, fmt.Sprintf("• %s: %s", s.Name, d.manageURL(s.ID)))
	}
	d.metrics.ObserveAction("lookup", "dispatched")
	return res.Reply + "\n\n" + strings.Join(lines, "\n")
}

// dispatchFeatureRequest tells the operator what was asked for. The requester
// description is computed under the session lock; the notification itself
// runs detached so a slow operator channel never delays the reply.
func (d *Dispatcher) dispatchFeatureRequest(sender string, sess *session.Session, res intent.Result) string {
	request := stringField(res.Data, "request")
	if request == "" {
		request = "unknown"
	}
	requester := notify.DescribeRequester(sess.KnownKids, sender)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.operator.NotifyFeatureRequest(ctx, requester, request)
	}()

	d.metrics.ObserveAction("feature_request", "notified")
	return res.Reply
}

// fireTrigger kicks off the first report for a new subscriber. Detached and
// best-effort; a trigger failure never rolls back or taints the creation.
func (d *Dispatcher) fireTrigger(subscriberID string) {
	if d.trigger == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.trigger.Fire(ctx, subscriberID); err != nil {
			d.logger.Error("report trigger failed", "subscriber_id", subscriberID, "error", err)
		}
	}()
}

func (d *Dispatcher) manageURL(subscriberID string) string {
	return d.settingsURL + "?id=" + subscriberID
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
