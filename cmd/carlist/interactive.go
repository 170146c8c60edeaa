package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"carlist/internal/eventbus"
	"carlist/internal/ui"
)

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, a.controller, a.cfg, a.logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	unsubscribe := a.bus.Subscribe(eventbus.EventCollectionReplaced, func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			// The next replacement carries the full collection again
			a.logger.Warn("event channel full, dropping event", zap.String("type", string(e.Type())))
		}
	})
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case event := <-eventChan:
				p.Send(ui.EventMsg{Event: event})
			case <-gctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		defer cancel()
		a.logger.Info("starting UI")
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("error running program: %w", err)
		}
		a.logger.Info("UI exited normally")
		return nil
	})

	return g.Wait()
}
