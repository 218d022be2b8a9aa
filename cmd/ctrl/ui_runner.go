package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zenthial/ctrl/internal/driver"
	"github.com/Zenthial/ctrl/internal/pipeline"
	"github.com/Zenthial/ctrl/internal/ui"
)

type buildOutcome struct {
	results []driver.CompileResult
	err     error
}

func runBuildAllWithUI(ctx context.Context, title string, reqs []driver.CompileRequest, jobs int) ([]driver.CompileResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	files := make([]string, len(reqs))
	for i := range reqs {
		files[i] = reqs[i].InputPath
	}

	go func() {
		reqsCopy := make([]driver.CompileRequest, len(reqs))
		copy(reqsCopy, reqs)
		for i := range reqsCopy {
			reqsCopy[i].Progress = pipeline.ChannelSink{Ch: events}
		}
		res, err := driver.BuildAll(ctx, reqsCopy, jobs)
		outcomeCh <- buildOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
