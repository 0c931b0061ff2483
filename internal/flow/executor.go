package flow

import (
	"context"
	"time"
)

// Recorder hooks let the metrics package observe engine activity without
// the engine depending on it.
var (
	transitionRecorder = func(flow, from, to string) {}
	actionRecorder     = func(flow, action, status string, duration time.Duration) {}
	eventsRecorder     = func(flow, outcome string) {}
)

// RegisterTransitionRecorder installs an observer for state transitions.
func RegisterTransitionRecorder(recorder func(flow, from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string, string) {}
		return
	}

	transitionRecorder = recorder
}

// RegisterActionRecorder installs an observer for action executions.
func RegisterActionRecorder(recorder func(flow, action, status string, duration time.Duration)) {
	if recorder == nil {
		actionRecorder = func(string, string, string, time.Duration) {}
		return
	}

	actionRecorder = recorder
}

// RegisterEventsRecorder installs an observer for handled-event outcomes.
func RegisterEventsRecorder(recorder func(flow, outcome string)) {
	if recorder == nil {
		eventsRecorder = func(string, string) {}
		return
	}

	eventsRecorder = recorder
}

// execute runs a matched transition rule to completion. The event is
// terminal after this call: no further matching happens. Any failure in
// the command leaves the session exactly as it was, so the user can retry
// without losing progress.
func (f *Flow) execute(ctx context.Context, rule Rule, fc *Context) error {
	input := make(map[string]any, len(fc.Params)+1)
	for k, v := range fc.Params {
		input[k] = v
	}
	// Conventional "text" field; typically absent for callback matches.
	if text := fc.Event.Text(); text != "" {
		input["text"] = text
	}

	start := time.Now()
	result, err := rule.Do.Execute(ctx, input, fc)
	if err != nil {
		actionRecorder(f.name, rule.Do.Name(), "error", time.Since(start))
		f.report(ctx, err)

		if sendErr := fc.Transport.Send(ctx, f.messages.ActionFailed, nil); sendErr != nil {
			return sendErr
		}
		return nil
	}
	actionRecorder(f.name, rule.Do.Name(), "ok", time.Since(start))

	current := fc.Session.StateName

	switch {
	case rule.Refresh:
		eventsRecorder(f.name, "refresh")
		return f.render(ctx, current, fc)

	case rule.NextFunc != nil || rule.Next != "":
		target := rule.Next
		if rule.NextFunc != nil {
			target = rule.NextFunc(result)
		}

		transitionRecorder(f.name, current, target)
		// Commit the transition before rendering: a failed render must not
		// roll the conversation back to the pre-action state.
		fc.Session.SetStateName(target)
		return f.render(ctx, target, fc)

	default:
		transitionRecorder(f.name, current, "")
		eventsRecorder(f.name, "exit")
		fc.Session.ExitFlow()
		return nil
	}
}
