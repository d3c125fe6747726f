package activity

import "context"

// Config toggles activity emission.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter applies Config defaults before forwarding events to Hooks.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

// NewEmitter builds an emitter. Nil hooks are discarded.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	filtered := make(Hooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &Emitter{hooks: filtered, cfg: cfg}
}

// Enabled reports whether events will reach at least one hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

// Emit sends the event when enabled.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if event.Channel == "" {
		event.Channel = e.cfg.Channel
	}
	return e.hooks.Notify(ctx, event)
}
