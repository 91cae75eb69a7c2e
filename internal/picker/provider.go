package picker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/runger/vselect/internal/option"
)

// Provider is the interface for data sources that supply options to the picker.
// Implementations might read a file, run a command, or hold a fixed list.
type Provider interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Request describes what options the picker wants from a Provider.
type Request struct {
	RequestID uint64 // Monotonically increasing, for stale response detection
	Query     string // Search filter, applied by the provider
}

// Response carries options back from a Provider.
type Response struct {
	RequestID uint64 // Must match Request.RequestID to be accepted
	Items     []option.Item
}

// StaticProvider serves a fixed sequence filtered by the request query.
type StaticProvider struct {
	seq option.Sequence
}

// Compile-time check that StaticProvider implements Provider.
var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider over items. Labels are sanitized once.
func NewStaticProvider(items []option.Item) *StaticProvider {
	return &StaticProvider{seq: option.NewSequence(SanitizeItems(items))}
}

// Fetch implements Provider.
func (p *StaticProvider) Fetch(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	return Response{
		RequestID: req.RequestID,
		Items:     p.seq.Filter(req.Query).Items(),
	}, nil
}

// commandTimeout bounds a single run of the option command.
const commandTimeout = 10 * time.Second

// CommandProvider runs a command once and filters its output locally. The
// command output does not depend on the query, so concurrent first fetches
// share one run.
type CommandProvider struct {
	cmdline string
	timeout time.Duration

	group singleflight.Group
	seq   *option.Sequence // set once the command has succeeded; guarded by group
}

// Compile-time check that CommandProvider implements Provider.
var _ Provider = (*CommandProvider)(nil)

// NewCommandProvider creates a provider for cmdline. A non-positive timeout
// uses commandTimeout.
func NewCommandProvider(cmdline string, timeout time.Duration) *CommandProvider {
	if timeout <= 0 {
		timeout = commandTimeout
	}
	return &CommandProvider{cmdline: cmdline, timeout: timeout}
}

// Fetch implements Provider.
func (p *CommandProvider) Fetch(ctx context.Context, req Request) (Response, error) {
	v, err, _ := p.group.Do("load", func() (any, error) {
		if p.seq != nil {
			return *p.seq, nil
		}
		// The run is shared, so it must not die with the first caller's context.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		items, err := option.FromCommand(runCtx, p.cmdline)
		if err != nil {
			return nil, err
		}
		seq := option.NewSequence(SanitizeItems(items))
		p.seq = &seq
		return seq, nil
	})
	if err != nil {
		return Response{}, fmt.Errorf("command provider: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	seq := v.(option.Sequence)
	return Response{
		RequestID: req.RequestID,
		Items:     seq.Filter(req.Query).Items(),
	}, nil
}
