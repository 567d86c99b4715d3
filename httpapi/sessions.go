package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"domain-storefront/models"
	"domain-storefront/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

// ErrSessionNotFound is returned for an unknown or finished session
var ErrSessionNotFound = errors.New("session not found")

// SessionClient starts storefront sessions and delivers events to them
type SessionClient interface {
	Start(ctx context.Context, clientID string) (string, error)
	State(ctx context.Context, sessionID string) (models.SessionState, error)
	Apply(ctx context.Context, sessionID string, event models.Event) (models.SessionState, error)
}

// TemporalSessions runs each session as a StorefrontWorkflow
type TemporalSessions struct {
	client      client.Client
	taskQueue   string
	idleTimeout time.Duration
}

// NewTemporalSessions starts sessions on taskQueue, closing them after idleTimeout
func NewTemporalSessions(c client.Client, taskQueue string, idleTimeout time.Duration) *TemporalSessions {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueueName
	}
	return &TemporalSessions{client: c, taskQueue: taskQueue, idleTimeout: idleTimeout}
}

// WorkflowID returns the workflow ID hosting sessionID
func WorkflowID(sessionID string) string {
	return "storefront-" + sessionID
}

// Start launches a session for clientID and returns its ID
func (t *TemporalSessions) Start(ctx context.Context, clientID string) (string, error) {
	sessionID := uuid.NewString()
	options := client.StartWorkflowOptions{
		ID:                       WorkflowID(sessionID),
		TaskQueue:                t.taskQueue,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_FAIL,
	}
	params := models.SessionParams{SessionID: sessionID, ClientID: clientID, IdleTimeout: t.idleTimeout}

	if _, err := t.client.ExecuteWorkflow(ctx, options, workflows.StorefrontWorkflow, params); err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}
	return sessionID, nil
}

// State queries the session state
func (t *TemporalSessions) State(ctx context.Context, sessionID string) (models.SessionState, error) {
	var state models.SessionState
	resp, err := t.client.QueryWorkflow(ctx, WorkflowID(sessionID), "", workflows.QueryState)
	if err != nil {
		return state, notFound(err)
	}
	if err := resp.Get(&state); err != nil {
		return state, fmt.Errorf("failed to decode session state: %w", err)
	}
	return state, nil
}

// Apply delivers event through the apply update and waits for the result
func (t *TemporalSessions) Apply(ctx context.Context, sessionID string, event models.Event) (models.SessionState, error) {
	var state models.SessionState
	handle, err := t.client.UpdateWorkflow(ctx, client.UpdateWorkflowOptions{
		WorkflowID:   WorkflowID(sessionID),
		UpdateName:   workflows.UpdateApply,
		Args:         []interface{}{event},
		WaitForStage: client.WorkflowUpdateStageCompleted,
	})
	if err != nil {
		return state, notFound(err)
	}
	if err := handle.Get(ctx, &state); err != nil {
		return state, err
	}
	return state, nil
}

func notFound(err error) error {
	var nf *serviceerror.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, nf.Error())
	}
	return err
}
