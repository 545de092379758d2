package requester

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mturk"
	"github.com/aws/aws-sdk-go-v2/service/mturk/types"
	"github.com/google/uuid"

	"mturk-tools/internal/hitdef"
	"mturk-tools/internal/results"
	"mturk-tools/internal/shared/metrics"
	"mturk-tools/internal/shared/telemetry"
)

const notificationVersion = "2006-05-05"

// GetTask fetches one HIT.
func (c *Client) GetTask(ctx context.Context, hitID string) (results.Task, error) {
	out, err := c.api.GetHIT(ctx, &mturk.GetHITInput{HITId: aws.String(hitID)})
	if err != nil {
		return results.Task{}, fmt.Errorf("get hit %s: %w", hitID, err)
	}
	if out.HIT == nil {
		return results.Task{}, fmt.Errorf("get hit %s: empty response", hitID)
	}
	return taskFromHIT(*out.HIT), nil
}

// ListTasks returns every HIT visible to the account.
func (c *Client) ListTasks(ctx context.Context) ([]results.Task, error) {
	p := mturk.NewListHITsPaginator(c.api, &mturk.ListHITsInput{}, func(o *mturk.ListHITsPaginatorOptions) {
		o.Limit = c.pageSize
		o.StopOnDuplicateToken = true
	})

	var tasks []results.Task
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list hits: %w", err)
		}
		for _, h := range page.HITs {
			tasks = append(tasks, taskFromHIT(h))
		}
		if len(page.HITs) == 0 {
			break
		}
	}
	return tasks, nil
}

// ListSubmissions returns every assignment of hitID, following pagination
// until no continuation token is returned.
func (c *Client) ListSubmissions(ctx context.Context, hitID string) ([]results.Submission, error) {
	p := mturk.NewListAssignmentsForHITPaginator(c.api, &mturk.ListAssignmentsForHITInput{
		HITId: aws.String(hitID),
	}, func(o *mturk.ListAssignmentsForHITPaginatorOptions) {
		o.Limit = c.pageSize
		o.StopOnDuplicateToken = true
	})

	var subs []results.Submission
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list assignments for %s: %w", hitID, err)
		}
		for _, a := range page.Assignments {
			sub, err := submissionFromAssignment(a)
			if err != nil {
				return nil, err
			}
			subs = append(subs, sub)
		}
		if len(page.Assignments) == 0 {
			break
		}
	}
	return subs, nil
}

// Fetched is the raw material for one results batch.
type Fetched struct {
	Tasks       map[string]results.Task
	Submissions []results.Submission
	// Failed lists HIT ids whose metadata or assignments could not be fetched.
	Failed []string
}

// FetchBatch loads the HITs named by entries and all their assignments.
// Repeated ids are fetched once. A failing HIT is logged and recorded
// without aborting the batch.
func (c *Client) FetchBatch(ctx context.Context, entries []results.BatchEntry) (Fetched, error) {
	start := time.Now()
	f := Fetched{Tasks: make(map[string]results.Task, len(entries))}
	seen := make(map[string]bool, len(entries))
	for _, hitID := range results.HITIDs(entries) {
		if seen[hitID] {
			continue
		}
		seen[hitID] = true
		if err := ctx.Err(); err != nil {
			return f, err
		}
		task, err := c.GetTask(ctx, hitID)
		if err != nil {
			telemetry.Warn("requester.hit.fetch_failed", errorFields(err, map[string]any{"hit_id": hitID}))
			f.Failed = append(f.Failed, hitID)
			continue
		}
		f.Tasks[hitID] = task

		subs, err := c.ListSubmissions(ctx, hitID)
		if err != nil {
			telemetry.Warn("requester.assignments.fetch_failed", errorFields(err, map[string]any{"hit_id": hitID}))
			f.Failed = append(f.Failed, hitID)
			continue
		}
		f.Submissions = append(f.Submissions, subs...)
	}
	elapsed := time.Since(start)
	metrics.ObserveBatchFetchMs(float64(elapsed.Milliseconds()))
	telemetry.Info("requester.batch.fetched", map[string]any{
		"duration_ms": elapsed.Milliseconds(),
		"hits":        len(f.Tasks),
		"assignments": len(f.Submissions),
		"failed":      len(f.Failed),
	})
	return f, nil
}

// CreateTask creates one HIT. The request token makes retries idempotent.
func (c *Client) CreateTask(ctx context.Context, req hitdef.Request) (results.Task, error) {
	in := &mturk.CreateHITInput{
		Title:                       aws.String(req.Title),
		Description:                 aws.String(req.Description),
		Keywords:                    aws.String(req.Keywords),
		Reward:                      aws.String(req.Reward),
		Question:                    aws.String(req.Question),
		MaxAssignments:              aws.Int32(req.MaxAssignments),
		AssignmentDurationInSeconds: aws.Int64(int64(req.AssignmentDuration.Seconds())),
		LifetimeInSeconds:           aws.Int64(int64(req.Lifetime.Seconds())),
		AutoApprovalDelayInSeconds:  aws.Int64(int64(req.AutoApprovalDelay.Seconds())),
		UniqueRequestToken:          aws.String(uuid.NewString()),
	}
	if req.Annotation != "" {
		in.RequesterAnnotation = aws.String(req.Annotation)
	}
	if len(req.Qualifications) > 0 {
		in.QualificationRequirements = requirementsToSDK(req.Qualifications)
	}

	out, err := c.api.CreateHIT(ctx, in)
	if err != nil {
		return results.Task{}, fmt.Errorf("create hit: %w", err)
	}
	if out.HIT == nil {
		return results.Task{}, errors.New("create hit: empty response")
	}
	return taskFromHIT(*out.HIT), nil
}

// AssignQualification grants qualID to every distinct worker. Failures are
// logged and skipped; the ids that succeeded are returned.
func (c *Client) AssignQualification(ctx context.Context, qualID string, value int32, notify bool, workerIDs []string) ([]string, error) {
	seen := make(map[string]bool, len(workerIDs))
	var granted []string
	for _, worker := range workerIDs {
		worker = strings.TrimSpace(worker)
		if worker == "" || seen[worker] {
			continue
		}
		seen[worker] = true
		if err := ctx.Err(); err != nil {
			return granted, err
		}

		_, err := c.api.AssociateQualificationWithWorker(ctx, &mturk.AssociateQualificationWithWorkerInput{
			QualificationTypeId: aws.String(qualID),
			WorkerId:            aws.String(worker),
			IntegerValue:        aws.Int32(value),
			SendNotification:    aws.Bool(notify),
		})
		if err != nil {
			telemetry.Warn("requester.qualification.skipped", errorFields(err, map[string]any{
				"worker_id":        worker,
				"qualification_id": qualID,
			}))
			continue
		}
		granted = append(granted, worker)
	}
	return granted, nil
}

// AccountBalance returns the available prepaid balance.
func (c *Client) AccountBalance(ctx context.Context) (string, error) {
	out, err := c.api.GetAccountBalance(ctx, &mturk.GetAccountBalanceInput{})
	if err != nil {
		return "", fmt.Errorf("get account balance: %w", err)
	}
	return aws.ToString(out.AvailableBalance), nil
}

// Subscribe routes events for hitTypeID to an SQS queue.
func (c *Client) Subscribe(ctx context.Context, hitTypeID string, n hitdef.Notification) error {
	events := make([]types.EventType, 0, len(n.Events))
	for _, e := range n.Events {
		events = append(events, types.EventType(e))
	}
	if len(events) == 0 {
		events = append(events, types.EventTypeAssignmentSubmitted)
	}

	_, err := c.api.UpdateNotificationSettings(ctx, &mturk.UpdateNotificationSettingsInput{
		HITTypeId: aws.String(hitTypeID),
		Active:    aws.Bool(true),
		Notification: &types.NotificationSpecification{
			Destination: aws.String(n.QueueURL),
			EventTypes:  events,
			Transport:   types.NotificationTransportSqs,
			Version:     aws.String(notificationVersion),
		},
	})
	if err != nil {
		return fmt.Errorf("update notification settings for %s: %w", hitTypeID, err)
	}
	return nil
}
