package flow

import (
	"context"
	"log/slog"

	"github.com/avetikov/flowgram/internal/apperr"
)

// render displays a state: runs its entry query when present, invokes the
// view, and delivers the payload. Callback-origin events get an ack plus
// an in-place edit; everything else gets a new message. Entry-query
// failures leave session state untouched and surface the fixed render
// failure message.
func (f *Flow) render(ctx context.Context, stateName string, fc *Context) error {
	st, ok := f.states[stateName]
	if !ok {
		f.report(ctx, apperr.NewConfigError(f.name, stateName))
		fc.Session.ExitFlow()
		return nil
	}

	var data any = map[string]any{}
	if st.OnEnter != nil {
		result, err := st.OnEnter.Execute(ctx, nil, fc)
		if err != nil {
			f.report(ctx, err)
			renderFailureRecorder(f.name, stateName)

			if sendErr := fc.Transport.Send(ctx, f.messages.RenderFailed, nil); sendErr != nil {
				return sendErr
			}
			return nil
		}
		data = result
	}

	payload := st.View(data)

	f.log.Debug("rendering state",
		slog.String("flow", f.name),
		slog.String("state", stateName),
	)

	if _, isCallback := fc.Event.CallbackData(); isCallback {
		if err := fc.Transport.Ack(ctx, ""); err != nil {
			return err
		}
		return fc.Transport.Edit(ctx, payload.Text, payload.Markup)
	}

	return fc.Transport.Send(ctx, payload.Text, payload.Markup)
}

var renderFailureRecorder = func(flow, state string) {}

// RegisterRenderFailureRecorder installs an observer for entry-query
// failures.
func RegisterRenderFailureRecorder(recorder func(flow, state string)) {
	if recorder == nil {
		renderFailureRecorder = func(string, string) {}
		return
	}

	renderFailureRecorder = recorder
}
