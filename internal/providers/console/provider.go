package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/replbridge/internal/console"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/replbridge/internal/shared/id"
	"github.com/GriffinCanCode/replbridge/internal/shared/types"
	"go.uber.org/zap"
)

const (
	ServiceID = "console"

	ToolExecute       = "console.execute"
	ToolExecuteScript = "console.execute_script"
	ToolHealth        = "console.health"
	ToolConnect       = "console.connect"
	ToolDisconnect    = "console.disconnect"
	ToolRestart       = "console.restart"

	defaultMaxFailures = 3
	breakerCooldown    = 30 * time.Second
)

// Provider exposes a console session as tools
type Provider struct {
	manager *console.Manager
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	logger  *zap.Logger
}

// Option configures a Provider
type Option func(*Provider)

// WithMetrics records per-tool call metrics
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

// WithTracer opens a span per tool call
func WithTracer(t *tracing.Tracer) Option {
	return func(p *Provider) { p.tracer = t }
}

// WithLogger sets the provider logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithBreaker replaces the connect circuit breaker
func WithBreaker(b *resilience.Breaker) Option {
	return func(p *Provider) { p.breaker = b }
}

// NewProvider creates a console provider. The connect breaker opens after
// maxFailures consecutive boot failures.
func NewProvider(manager *console.Manager, maxFailures int, opts ...Option) *Provider {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}

	p := &Provider{manager: manager, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	if p.breaker == nil {
		p.breaker = NewConnectBreaker(uint32(maxFailures), breakerCooldown, p.logger)
	}
	return p
}

// NewConnectBreaker builds the breaker guarding console boots. Boots cut
// short by the caller's context are not counted against the console.
func NewConnectBreaker(maxFailures uint32, cooldown time.Duration, logger *zap.Logger) *resilience.Breaker {
	return resilience.New("console-connect", resilience.Settings{
		Timeout: cooldown,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// Manager returns the underlying session manager
func (p *Provider) Manager() *console.Manager {
	return p.manager
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          ServiceID,
		Name:        "Interactive Console",
		Description: "Evaluate code in a long-lived interactive console session",
		Category:    types.CategoryConsole,
		Capabilities: []string{
			"execute",
			"script",
			"health",
			"lifecycle",
		},
		Tools: p.getTools(),
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          ToolExecute,
			Name:        "Execute",
			Description: "Evaluate a single expression or statement in the console",
			Parameters: []types.Parameter{
				{Name: "command", Type: "string", Description: "Code to evaluate", Required: true},
				{Name: "timeout_ms", Type: "number", Description: "Override the execution timeout", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          ToolExecuteScript,
			Name:        "Execute Script",
			Description: "Evaluate a multi-line script in the console",
			Parameters: []types.Parameter{
				{Name: "script", Type: "string", Description: "Multi-line code to evaluate", Required: true},
				{Name: "timeout_ms", Type: "number", Description: "Override the execution timeout", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          ToolHealth,
			Name:        "Health",
			Description: "Report session readiness, status and configuration",
			Parameters:  []types.Parameter{},
			Returns:     "object",
		},
		{
			ID:          ToolConnect,
			Name:        "Connect",
			Description: "Start the console and wait for its prompt",
			Parameters:  []types.Parameter{},
			Returns:     "object",
		},
		{
			ID:          ToolDisconnect,
			Name:        "Disconnect",
			Description: "Terminate the console session",
			Parameters:  []types.Parameter{},
			Returns:     "boolean",
		},
		{
			ID:          ToolRestart,
			Name:        "Restart",
			Description: "Terminate and start the console again",
			Parameters:  []types.Parameter{},
			Returns:     "object",
		},
	}
}

// Execute runs a console tool
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	if p.tracer != nil {
		var span *tracing.Span
		span, ctx = p.tracer.StartSpan(ctx, toolID)
		defer span.Finish()
		if appCtx != nil && appCtx.RequestID != "" {
			span.SetTag("request_id", appCtx.RequestID)
		}
	}

	timer := monitoring.NewTimer(p.metrics, toolID)

	result, err := p.dispatch(ctx, toolID, params)
	switch {
	case err != nil:
		timer.Stop("error")
	case result.Success:
		timer.Stop("success")
	default:
		timer.Stop("failure")
	}
	return result, err
}

func (p *Provider) dispatch(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	switch toolID {
	case ToolExecute:
		return p.execute(ctx, params, "command")
	case ToolExecuteScript:
		return p.execute(ctx, params, "script")
	case ToolHealth:
		return p.health()
	case ToolConnect:
		return p.connect(ctx)
	case ToolDisconnect:
		return p.disconnect()
	case ToolRestart:
		return p.restart(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownTool, toolID)
	}
}

func (p *Provider) execute(ctx context.Context, params map[string]interface{}, key string) (*types.Result, error) {
	code, ok := params[key].(string)
	if !ok || strings.TrimSpace(code) == "" {
		return nil, types.Required(key)
	}

	timeout := p.manager.Config().Timeout
	if ms, ok := params["timeout_ms"].(float64); ok && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	execID := id.NewExecutionID()
	res := p.manager.ExecuteTimeout(ctx, code, timeout)

	data := map[string]interface{}{
		"execution_id": execID.String(),
		"output":       res.Output,
		"elapsed_ms":   res.Elapsed.Milliseconds(),
		"timed_out":    res.TimedOut,
	}
	if res.Kind != console.KindNone {
		data["kind"] = string(res.Kind)
	}
	if res.Hint != "" {
		data["hint"] = res.Hint
	}
	if res.Parsed != nil {
		data["parsed"] = res.Parsed
	}

	if res.Success {
		return types.Success(data), nil
	}

	p.logger.Debug("Console execution failed",
		zap.String("execution_id", execID.String()),
		zap.String("kind", string(res.Kind)),
		zap.Duration("elapsed", res.Elapsed))
	return types.Failure(failureMessage(res), data), nil
}

// failureMessage renders the user-facing text for a failed execution
func failureMessage(res console.Result) string {
	msg := res.Error
	if msg == "" {
		msg = string(res.Kind)
	}
	if res.Hint != "" {
		msg += "\n\n" + res.Hint
	}
	return msg
}

func (p *Provider) health() (*types.Result, error) {
	status := p.manager.Status()
	cfg := p.manager.Config()
	counts := p.breaker.Counts()

	return types.Success(map[string]interface{}{
		"ready":  status.Ready,
		"status": status,
		"config": map[string]interface{}{
			"command":            cfg.Command,
			"working_dir":        cfg.WorkingDir,
			"timeout_ms":         cfg.Timeout.Milliseconds(),
			"startup_timeout_ms": cfg.StartupTimeout.Milliseconds(),
			"slow_threshold_ms":  cfg.SlowThreshold.Milliseconds(),
			"cols":               cfg.Cols,
			"rows":               cfg.Rows,
		},
		"breaker": map[string]interface{}{
			"state":                breakerState(p.breaker),
			"consecutive_failures": counts.ConsecutiveFailures,
		},
	}), nil
}

func breakerState(b *resilience.Breaker) string {
	return b.State().String()
}

func (p *Provider) connect(ctx context.Context) (*types.Result, error) {
	if p.manager.Ready() {
		return p.connected(true), nil
	}
	return p.boot(ctx, p.manager.Start)
}

func (p *Provider) restart(ctx context.Context) (*types.Result, error) {
	return p.boot(ctx, p.manager.Restart)
}

func (p *Provider) boot(ctx context.Context, start func(context.Context) error) (*types.Result, error) {
	err := p.breaker.Do(func() error { return start(ctx) })
	if err == nil {
		return p.connected(false), nil
	}

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		status := p.manager.Status()
		msg := "console startup is failing repeatedly; connect attempts are paused"
		if status.LastError != "" {
			msg += "\n\nLast error: " + status.LastError
		}
		return types.Failure(msg, map[string]interface{}{
			"kind":    "CircuitOpen",
			"breaker": breakerState(p.breaker),
		}), nil
	}

	data := map[string]interface{}{"kind": string(console.KindOf(err))}
	msg := err.Error()
	if hint := console.HintOf(err); hint != "" {
		data["hint"] = hint
		msg += "\n\n" + hint
	}
	return types.Failure(msg, data), nil
}

func (p *Provider) connected(already bool) *types.Result {
	status := p.manager.Status()
	return types.Success(map[string]interface{}{
		"ready":           status.Ready,
		"already_running": already,
		"session_id":      status.SessionID,
		"pid":             status.Pid,
	})
}

func (p *Provider) disconnect() (*types.Result, error) {
	if err := p.manager.Stop(); err != nil {
		return nil, err
	}
	return types.Success(map[string]interface{}{"stopped": true}), nil
}
