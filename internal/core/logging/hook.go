package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook copies the push and rundown ids stored in an event's context
// onto the event. Events logged without Ctx(ctx) are left alone.
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	for _, f := range []struct {
		key string
		get func() string
	}{
		{"push_id", func() string { return GetPushID(ctx) }},
		{"rundown_id", func() string { return GetRundownID(ctx) }},
	} {
		if v := f.get(); v != "" {
			e.Str(f.key, v)
		}
	}
}
