package deploy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
)

var retryables = retry.IsErrorRetryables(retry.DefaultRetryables)

func (d *Deployer) backOff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     d.opts.PollInterval,
		RandomizationFactor: 0.2,
		Multiplier:          1.5,
		MaxInterval:         30 * time.Second,
		MaxElapsedTime:      d.opts.Timeout,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}, ctx)
}

// transient reports whether err is throttling, a timeout or a server fault.
func transient(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorFault() == smithy.FaultServer {
		return true
	}
	return retryables.IsErrorRetryable(err) == aws.TrueTernary
}

// poll runs op until it stops returning errPending. Transient API errors are
// retried; anything else ends the wait.
func (d *Deployer) poll(ctx context.Context, stackName string, op func() error) error {
	l := d.log.WithField("stack", stackName)
	classified := func() error {
		err := op()
		var permanent *backoff.PermanentError
		if err == nil || errors.Is(err, errPending) || errors.As(err, &permanent) || transient(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	err := backoff.RetryNotify(classified, d.backOff(ctx), func(err error, wait time.Duration) {
		if errors.Is(err, errPending) {
			l.Debugf("%v, next check in %s", err, wait.Round(time.Millisecond))
			return
		}
		l.WithError(err).Warnf("retrying in %s", wait.Round(time.Millisecond))
	})
	if errors.Is(err, errPending) {
		return fmt.Errorf("%s: timed out: %w", stackName, err)
	}
	return err
}

// waitChangeSet returns true when the change set turned out empty.
func (d *Deployer) waitChangeSet(ctx context.Context, api CloudFormationAPI, stackName, changeSet string) (bool, error) {
	var empty bool
	err := d.poll(ctx, stackName, func() error {
		out, err := api.DescribeChangeSet(ctx, &cloudformation.DescribeChangeSetInput{
			StackName:     aws.String(stackName),
			ChangeSetName: aws.String(changeSet),
		})
		if err != nil {
			return err
		}
		switch out.Status {
		case types.ChangeSetStatusCreateComplete:
			return nil
		case types.ChangeSetStatusFailed:
			reason := aws.ToString(out.StatusReason)
			for _, s := range noChanges {
				if strings.Contains(reason, s) {
					empty = true
					return nil
				}
			}
			return backoff.Permanent(&StackError{Stack: stackName, Status: "CHANGE_SET_FAILED", Reasons: []string{reason}})
		}
		return fmt.Errorf("%w: change set %s", errPending, out.Status)
	})
	return empty, err
}

// waitStack polls until the stack reaches a terminal status. A stack that
// disappears is complete when deleting.
func (d *Deployer) waitStack(ctx context.Context, api CloudFormationAPI, stackName string, since time.Time, deleting bool) (types.StackStatus, error) {
	var final types.StackStatus
	err := d.poll(ctx, stackName, func() error {
		st, err := describe(ctx, api, stackName)
		if err != nil {
			return err
		}
		if st == nil {
			if deleting {
				final = types.StackStatusDeleteComplete
				return nil
			}
			return backoff.Permanent(&StackError{Stack: stackName, Status: "MISSING"})
		}
		status := st.StackStatus
		if inProgress(status) {
			return fmt.Errorf("%w: %s", errPending, status)
		}
		final = status
		if succeeded(status, deleting) {
			return nil
		}
		return backoff.Permanent(&StackError{
			Stack:   stackName,
			Status:  string(status),
			Reasons: failureReasons(ctx, api, stackName, since, aws.ToString(st.StackStatusReason)),
		})
	})
	return final, err
}

func succeeded(s types.StackStatus, deleting bool) bool {
	if deleting {
		return s == types.StackStatusDeleteComplete
	}
	switch s {
	case types.StackStatusCreateComplete, types.StackStatusUpdateComplete, types.StackStatusImportComplete:
		return true
	}
	return false
}

// failureReasons collects the reasons of resources that failed since the
// operation started, oldest first.
func failureReasons(ctx context.Context, api CloudFormationAPI, stackName string, since time.Time, fallback string) []string {
	out, err := api.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{StackName: aws.String(stackName)})
	if err != nil {
		if fallback != "" {
			return []string{fallback}
		}
		return nil
	}

	events := make([]types.StackEvent, 0, len(out.StackEvents))
	for _, e := range out.StackEvents {
		if e.Timestamp != nil && e.Timestamp.Before(since) {
			continue
		}
		if !strings.HasSuffix(string(e.ResourceStatus), "_FAILED") {
			continue
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return aws.ToTime(events[i].Timestamp).Before(aws.ToTime(events[j].Timestamp))
	})

	var reasons []string
	for _, e := range events {
		reason := aws.ToString(e.ResourceStatusReason)
		if reason == "" || strings.Contains(reason, "Resource creation cancelled") {
			continue
		}
		reasons = append(reasons, aws.ToString(e.LogicalResourceId)+": "+reason)
	}
	if len(reasons) == 0 && fallback != "" {
		reasons = append(reasons, fallback)
	}
	return reasons
}
