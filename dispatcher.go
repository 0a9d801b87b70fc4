package totalconnect

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Call dispatches op, making sure the session is valid first. Transient
// failures are retried with a fixed delay up to the attempt limit, and an
// expired session is renewed and the call replayed. The reply is decoded
// into reply.
func (c *Client) Call(ctx context.Context, op Operation, args Args, reply Response) error {
	if !op.auth {
		if err := c.ensureValid(ctx); err != nil {
			return err
		}
	}
	return c.call(ctx, op, args, reply)
}

func (c *Client) call(ctx context.Context, op Operation, args Args, reply Response) error {
	id := uuid.NewString()
	bo := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(c.retryDelay),
			uint64(c.maxAttempts-1),
		),
		ctx,
	)

	for attempt := 1; ; attempt++ {
		err := c.attempt(ctx, op, args, reply)
		c.log.Debug("call", "op", op.name, "req", id, "attempt", attempt, "err", err)

		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrAuthentication):
			c.session.invalidate()
			return err
		case Retryable(err), errors.Is(err, ErrInvalidSession):
		default:
			return err
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("giving up", "op", op.name, "req", id, "attempts", attempt, "err", err)
			return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrServiceUnavailable, op.name, attempt, err)
		}

		if errors.Is(err, ErrInvalidSession) && !op.auth {
			c.log.Warn("session expired, logging in again", "op", op.name, "req", id)
			c.session.token = ""
			if err := c.authenticate(ctx); err != nil {
				return err
			}
			continue
		}

		c.log.Warn("call failed, retrying", "op", op.name, "req", id, "attempt", attempt, "in", wait, "err", err)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// attempt sends op exactly once and interprets the result code of the reply.
func (c *Client) attempt(ctx context.Context, op Operation, args Args, reply Response) error {
	resetReply(reply)

	req := make(Args, len(args)+1)
	for k, v := range args {
		req[k] = append([]string(nil), v...)
	}
	if !op.auth {
		req.Set(argSessionID, c.session.token)
	}

	if err := c.transport.Send(ctx, op, req, reply); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrMalformedReply) {
			return &ResultError{
				Op:       op.name,
				Data:     err.Error(),
				Category: CategoryServiceUnavailable,
				Reply:    reply,
			}
		}
		return fmt.Errorf("%w: %s: %w", ErrRetryable, op.name, err)
	}

	res := reply.result()
	category := Classify(res.ResultCode)
	if op.auth && category == CategoryUsercodeUnavailable {
		category = CategoryAuthenticationFailed
	}
	if category != CategorySuccess {
		return &ResultError{
			Op:       op.name,
			Code:     res.ResultCode,
			Data:     res.ResultData,
			Category: category,
			Reply:    reply,
		}
	}

	if v, ok := reply.(validator); ok {
		if err := v.validate(); err != nil {
			var perr *PartialResponseError
			if errors.As(err, &perr) {
				perr.Op = op.name
			}
			return err
		}
	}
	return nil
}

// resetReply zeroes the record so a retried reply does not accumulate elements
// decoded by an earlier attempt.
func resetReply(reply Response) {
	v := reflect.ValueOf(reply)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
