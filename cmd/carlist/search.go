package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"carlist/internal/domain"
)

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var text string
	if len(args) > 0 {
		text = args[0]
	}
	// An empty query fetches on its own
	if text != "" {
		if _, err := a.controller.Refresh(ctx); err != nil {
			return err
		}
	}
	collection, err := a.controller.SetQuery(ctx, text)
	if err != nil {
		return err
	}

	printCollection(cmd.OutOrStdout(), collection, a.cfg.UISettings.ExtraFields)
	return nil
}

// printCollection writes one line per item: id, model and the chosen extras
func printCollection(w io.Writer, c domain.Collection, extraFields []string) {
	for _, item := range c.Items {
		parts := []string{"#" + item.ID, item.Model}
		for _, key := range extraFields {
			if raw, ok := item.ExtraValue(key); ok {
				parts = append(parts, fmt.Sprintf("%s=%s", key, gjson.Parse(raw).String()))
			}
		}
		fmt.Fprintln(w, strings.Join(parts, "\t"))
	}
}
