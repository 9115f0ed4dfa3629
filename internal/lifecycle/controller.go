// Package lifecycle orchestrates goal create/update/delete against the
// goal API and keeps the local store and countdown scheduler in step.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gitdone-app/gitdone-client/internal/api"
	"github.com/gitdone-app/gitdone-client/internal/countdown"
	"github.com/gitdone-app/gitdone-client/internal/deadline"
	"github.com/gitdone-app/gitdone-client/internal/models"
	"github.com/gitdone-app/gitdone-client/internal/store"
	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

// ErrBusy means another lifecycle operation is still in flight; the UI
// keeps its controls disabled until the current one resolves.
var ErrBusy = errors.New("another operation is in progress, please wait")

// GoalAPI is the slice of the API client the controller needs.
type GoalAPI interface {
	ListGoals(ctx context.Context) ([]models.Goal, error)
	CreateGoal(ctx context.Context, req api.CreateGoalRequest) (*models.Goal, error)
	UpdateGoal(ctx context.Context, id string, req api.UpdateGoalRequest) (*models.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
}

// ValidationError is a client-side rejection; it never reaches the network.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CreateInput is the user-entered form for a new goal. Deadline is the
// display text, validated before anything is sent to the server.
type CreateInput struct {
	Description         string
	Deadline            string
	RepoURL             string
	CompletionCondition string
	CompletionType      string
}

// UpdateInput is a partial edit; nil fields stay untouched.
type UpdateInput struct {
	Description         *string
	Deadline            *string // display text
	CompletionCondition *string
	CompletionType      *string
}

// Controller drives the goal lifecycle. Every store mutation is followed
// synchronously by the matching scheduler start/stop, so the scheduler
// never holds a timer for a goal that is absent or no longer active.
type Controller struct {
	api   GoalAPI
	store *store.GoalStore
	sched *countdown.Scheduler
	codec *deadline.Codec
	busy  atomic.Bool
	now   func() time.Time
}

// NewController wires the controller to its collaborators.
func NewController(goalAPI GoalAPI, goalStore *store.GoalStore, sched *countdown.Scheduler, codec *deadline.Codec) *Controller {
	return &Controller{
		api:   goalAPI,
		store: goalStore,
		sched: sched,
		codec: codec,
		now:   time.Now,
	}
}

// Busy reports whether a lifecycle operation is currently in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// acquire takes the busy flag for the duration of one operation. The
// returned release must run on every exit path.
func (c *Controller) acquire() (release func(), err error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { c.busy.Store(false) }, nil
}

// CreateGoal validates the input, submits it, and re-syncs the full goal
// list from the server. The created record is returned; on any failure
// the local state is left untouched.
func (c *Controller) CreateGoal(ctx context.Context, in CreateInput) (*models.Goal, error) {
	release, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := c.buildCreateRequest(in)
	if err != nil {
		logger.Log.WithError(err).Warn("Goal creation rejected client-side")
		return nil, err
	}

	created, err := c.api.CreateGoal(ctx, *req)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create goal")
		return nil, err
	}

	// Authoritative re-sync instead of an optimistic local append; the
	// server owns ordering and assigned fields.
	if err := c.refresh(ctx); err != nil {
		logger.Log.WithError(err).Warn("Goal created but refresh failed")
	}

	logger.Log.WithField("goal_id", created.ID).Info("Goal created")
	return created, nil
}

// UpdateGoal validates any new deadline, applies the partial update, and
// replaces the stored record in place. The countdown is restarted while
// the goal stays active, stopped otherwise.
func (c *Controller) UpdateGoal(ctx context.Context, id string, in UpdateInput) (*models.Goal, error) {
	release, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	req := api.UpdateGoalRequest{
		Description:         in.Description,
		CompletionCondition: in.CompletionCondition,
	}
	if in.CompletionType != nil {
		if !models.ValidCompletionType(*in.CompletionType) {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid completion type %q", *in.CompletionType)}
		}
		req.CompletionType = in.CompletionType
	}
	if in.Deadline != nil {
		t, err := c.codec.Parse(*in.Deadline)
		if err != nil {
			return nil, &ValidationError{Reason: "invalid deadline", Err: err}
		}
		canonical := deadline.Canonical(t)
		req.Deadline = &canonical
		req.DeadlineDisplay = in.Deadline
	}

	updated, err := c.api.UpdateGoal(ctx, id, req)
	if err != nil {
		logger.Log.WithField("goal_id", id).WithError(err).Error("Failed to update goal")
		return nil, err
	}

	c.store.Upsert(*updated)
	if updated.Active() {
		if err := c.sched.Start(*updated); err != nil {
			logger.Log.WithField("goal_id", id).WithError(err).Warn("Countdown not restarted after update")
		}
	} else {
		c.sched.Stop(updated.ID)
	}

	logger.Log.WithField("goal_id", id).Info("Goal updated")
	return updated, nil
}

// DeleteGoal removes the goal on the server, then locally, then cancels
// its countdown. Confirmation is the caller's responsibility. A failed
// delete leaves the goal and its timer untouched.
func (c *Controller) DeleteGoal(ctx context.Context, id string) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := c.api.DeleteGoal(ctx, id); err != nil {
		logger.Log.WithField("goal_id", id).WithError(err).Error("Failed to delete goal")
		return err
	}

	c.store.Remove(id)
	c.sched.Stop(id)

	logger.Log.WithField("goal_id", id).Info("Goal deleted")
	return nil
}

// Refresh replaces the local collection with the server's list and
// reconciles every countdown timer against it.
func (c *Controller) Refresh(ctx context.Context) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	return c.refresh(ctx)
}

func (c *Controller) refresh(ctx context.Context) error {
	goals, err := c.api.ListGoals(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch goals")
		return err
	}

	c.store.ReplaceAll(goals)

	c.sched.StopAll()
	for _, g := range c.store.All() {
		if !g.Active() {
			continue
		}
		if err := c.sched.Start(g); err != nil {
			logger.Log.WithField("goal_id", g.ID).WithError(err).Warn("Countdown not started")
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"count":  c.store.Len(),
		"timers": c.sched.Count(),
	}).Info("Goals refreshed")
	return nil
}

func (c *Controller) buildCreateRequest(in CreateInput) (*api.CreateGoalRequest, error) {
	if in.Description == "" {
		return nil, &ValidationError{Reason: "description is required"}
	}
	if _, _, err := models.SplitRepoURL(in.RepoURL); err != nil {
		return nil, &ValidationError{Reason: "invalid repository URL", Err: err}
	}
	completionType := in.CompletionType
	if completionType == "" {
		completionType = models.CompletionCommitMessage
	}
	if !models.ValidCompletionType(completionType) {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid completion type %q", completionType)}
	}
	if in.CompletionCondition == "" {
		return nil, &ValidationError{Reason: "completion condition is required"}
	}

	t, err := c.codec.Parse(in.Deadline)
	if err != nil {
		return nil, &ValidationError{Reason: "invalid deadline", Err: err}
	}
	if !t.After(c.now()) {
		return nil, &ValidationError{Reason: "deadline cannot be in the past"}
	}

	return &api.CreateGoalRequest{
		Description:         in.Description,
		Deadline:            deadline.Canonical(t),
		DeadlineDisplay:     in.Deadline,
		RepoURL:             in.RepoURL,
		CompletionCondition: in.CompletionCondition,
		CompletionType:      completionType,
	}, nil
}
