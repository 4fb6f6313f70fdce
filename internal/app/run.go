package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/events"
	"github.com/vk/shipgrid/internal/stage"
	"github.com/zclconf/go-cty/cty"
)

// Run dispatches the configured operation.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "operation", a.config.Operation)

	switch a.config.Operation {
	case OpList:
		return a.list()
	case OpPlan:
		return a.plan(a.config.Target)
	case OpParams:
		return a.showParams()
	default:
		return a.execute(ctx, a.config.Operation)
	}
}

// list prints every stage with its prerequisites.
func (a *App) list() error {
	for _, name := range a.stages.Names() {
		s, _ := a.stages.Stage(name)
		line := name
		if len(s.DependsOn) > 0 {
			line += " <- " + strings.Join(s.DependsOn, ", ")
		}
		if s.Description != "" {
			line = fmt.Sprintf("%-56s %s", line, s.Description)
		}
		fmt.Fprintln(a.outW, strings.TrimRight(line, " "))
	}
	return nil
}

// plan prints the execution order of target without running anything.
func (a *App) plan(target string) error {
	order, err := a.stages.Plan(target)
	if err != nil {
		return err
	}
	reqs, err := a.stages.Requirements(target)
	if err != nil {
		return err
	}
	for i, name := range order {
		fmt.Fprintf(a.outW, "%d. %s\n", i+1, name)
	}
	if len(reqs) > 0 {
		fmt.Fprintf(a.outW, "requires: %s\n", strings.Join(reqs, ", "))
	}
	if err := a.params.Require(reqs...); err != nil {
		a.logger.Warn("Plan would be rejected with the current parameters.", "error", err)
	}
	return nil
}

// showParams prints the resolved parameter set as an HCL params block with
// the token masked.
func (a *App) showParams() error {
	values := a.params.Redacted()
	f := hclwrite.NewEmptyFile()
	body := f.Body().AppendNewBlock("params", nil).Body()
	for _, name := range a.params.Names() {
		body.SetAttributeValue(name, cty.StringVal(values[name]))
	}
	_, err := a.outW.Write(hclwrite.Format(f.Bytes()))
	return err
}

func (a *App) execute(ctx context.Context, target string) error {
	var socket *events.SocketReporter
	if a.config.EventsURL != "" {
		var err error
		socket, err = events.Dial(ctx, a.config.EventsURL, events.SocketOptions{Namespace: a.config.EventsNamespace})
		if err != nil {
			// Reporting is best-effort.
			a.logger.Warn("Event reporting disabled.", "error", err)
			socket = nil
		} else {
			defer socket.Close()
		}
	}

	opts := []stage.Option{stage.WithObserver(events.Fanout(events.NewProgress(a.errW), socketObserver(socket)))}
	if a.config.LogLevel == "debug" {
		opts = append(opts, stage.WithLiveOutput(a.errW))
	}
	exec := stage.NewExecutor(a.stages, a.params, opts...)

	a.logger.Info("🚀 Starting run.", "target", target)
	report, err := exec.Run(ctx, target)
	if err != nil {
		var stageErr *stage.StageError
		if errors.As(err, &stageErr) && stageErr.Output != "" && a.config.LogLevel != "debug" {
			fmt.Fprintf(a.errW, "--- output of stage %q ---\n%s", stageErr.Stage, stageErr.Output)
			if !strings.HasSuffix(stageErr.Output, "\n") {
				fmt.Fprintln(a.errW)
			}
		}
		return err
	}

	if failures := report.Failures(); len(failures) > 0 {
		names := make([]string, 0, len(failures))
		for _, f := range failures {
			names = append(names, f.Stage)
		}
		a.logger.Warn("Run finished with ignored failures.", "stages", names)
	}
	a.logger.Info("🏁 Run finished.", "target", target, "executed", len(report.Executed()))
	return nil
}

// socketObserver avoids handing a typed nil to Fanout.
func socketObserver(s *events.SocketReporter) stage.Observer {
	if s == nil {
		return nil
	}
	return s
}
