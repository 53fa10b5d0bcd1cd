package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xiaot623/medintake/internal/adapter/artifact"
	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/domain"
	"github.com/xiaot623/medintake/internal/observability"
	"github.com/xiaot623/medintake/policy"
)

// Origin tells who asked for a tool call.
type Origin string

const (
	OriginModel Origin = "model"
	OriginUser  Origin = "user"
)

// PolicyEvaluator decides whether a tool call may run.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, input policy.Input) (policy.Decision, error)
}

// Result is the textual outcome of one tool call. Failures are reported in
// Output and Err; they never abort the turn.
type Result struct {
	CallID   string
	Tool     domain.ToolName
	Origin   Origin
	Decision policy.Decision
	Output   string
	Err      error
}

// Failed reports whether the call had no effect.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Persisted reports whether the draft was written to the artifact store.
func (r Result) Persisted() bool {
	return r.Tool == domain.ToolPersistDraft && r.Err == nil
}

// ArtifactKey returns the artifact name for a user's plan.
func ArtifactKey(userID string) string {
	return strings.ToLower(userID) + "_medical_plan.txt"
}

// Dispatcher applies tool calls to a session.
type Dispatcher struct {
	artifacts      artifact.Store
	policy         PolicyEvaluator
	persistTimeout time.Duration
	metrics        *observability.Metrics
}

// NewDispatcher creates a dispatcher. policy may be nil to allow every call.
func NewDispatcher(artifacts artifact.Store, policy PolicyEvaluator, persistTimeout time.Duration, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		artifacts:      artifacts,
		policy:         policy,
		persistTimeout: persistTimeout,
		metrics:        metrics,
	}
}

// DispatchAll decodes and applies the model's tool calls in the order they
// were emitted. Undecodable calls are skipped with a failed result.
func (d *Dispatcher) DispatchAll(ctx context.Context, sess *domain.Session, calls []llm.ToolCall) []Result {
	results := make([]Result, 0, len(calls))
	for _, tc := range calls {
		call, err := Decode(tc)
		if err != nil {
			log.Printf("WARN: skipping tool call %s for %s: %v", tc.ID, sess.UserID, err)
			d.metrics.ObserveToolCall(tc.Function.Name, "invalid")
			results = append(results, Result{
				CallID: tc.ID,
				Tool:   domain.ToolName(tc.Function.Name),
				Origin: OriginModel,
				Output: "Tool call rejected: " + err.Error(),
				Err:    err,
			})
			continue
		}
		results = append(results, d.Dispatch(ctx, sess, call, OriginModel))
	}
	return results
}

// Persist saves the session draft on the user's behalf.
func (d *Dispatcher) Persist(ctx context.Context, sess *domain.Session) Result {
	return d.Dispatch(ctx, sess, PersistDraft{UserID: sess.UserID}, OriginUser)
}

// Dispatch applies a single call to sess.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *domain.Session, call Call, origin Origin) Result {
	res := Result{
		CallID:   call.CallID(),
		Tool:     call.Name(),
		Origin:   origin,
		Decision: policy.Decision{Decision: policy.DecisionAllow},
	}

	if origin == OriginModel && d.policy != nil {
		decision, err := d.policy.Evaluate(ctx, policy.Input{
			ToolName:    string(call.Name()),
			Origin:      string(origin),
			Stage:       string(sess.Stage),
			UserID:      sess.UserID,
			DraftLength: len(sess.DraftContent),
		})
		if err != nil {
			log.Printf("WARN: policy evaluation failed for %s: %v", call.Name(), err)
			decision = policy.Decision{Decision: policy.DecisionBlock, Reason: "policy unavailable"}
		}
		res.Decision = decision
		if !decision.Allowed() {
			res.Err = fmt.Errorf("%w: %s", ErrToolBlocked, decision.Reason)
			res.Output = "Tool call blocked: " + decision.Reason
			d.metrics.ObserveToolCall(string(call.Name()), "blocked")
			return res
		}
	}

	switch c := call.(type) {
	case UpdateDraftContent:
		sess.DraftContent = c.Content
		res.Output = "Draft content updated"
	case PersistDraft:
		if c.UserID != "" && c.UserID != sess.UserID {
			log.Printf("WARN: persist_draft asked for %q in session of %q, using the session user", c.UserID, sess.UserID)
		}
		res.Output, res.Err = d.persist(ctx, sess)
	default:
		res.Err = fmt.Errorf("%w: %T", ErrUnknownTool, call)
		res.Output = res.Err.Error()
	}

	status := "ok"
	if res.Err != nil {
		status = "failed"
	}
	d.metrics.ObserveToolCall(string(call.Name()), status)
	return res
}

func (d *Dispatcher) persist(ctx context.Context, sess *domain.Session) (string, error) {
	key := ArtifactKey(sess.UserID)

	if d.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.persistTimeout)
		defer cancel()
	}

	if err := d.artifacts.SaveArtifact(ctx, key, sess.DraftContent); err != nil {
		log.Printf("ERROR: failed to persist draft for %s: %v", sess.UserID, err)
		return "Failed to save medical content: " + err.Error(), errors.Join(domain.ErrPersistence, err)
	}
	return "Saved medical content to " + key, nil
}
