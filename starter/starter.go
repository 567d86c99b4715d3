package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"domain-storefront/codec"
	"domain-storefront/config"
	"domain-storefront/httpapi"
	"domain-storefront/logging"
	"domain-storefront/models"
	"domain-storefront/workflows"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

const usage = `usage: starter [flags] <command> [args]

commands:
  start [client-id]                      start a storefront session
  query <session-id>                     print the session state
  event <session-id> <type> [key=value]  apply an event and print the new state
  signal <session-id> <type> [key=value] deliver an event without waiting

event keys: field, value, domain, price`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("starter", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintln(os.Stderr, usage)
		return nil
	}
	if err != nil {
		return err
	}
	if len(cfg.Args) == 0 {
		return errors.New(usage)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	keyBytes, err := codec.LoadKey(cfg.EncryptionKey, logger)
	if err != nil {
		return err
	}
	dataConverter, err := codec.NewEncryptionDataConverter(keyBytes)
	if err != nil {
		return fmt.Errorf("failed to create encryption data converter: %w", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:      cfg.TemporalAddress,
		Namespace:     cfg.Namespace,
		DataConverter: dataConverter,
		Logger:        logging.NewTemporalLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	ctx := context.Background()
	sessions := httpapi.NewTemporalSessions(c, cfg.TaskQueue, cfg.IdleTimeout)
	command, args := cfg.Args[0], cfg.Args[1:]

	switch command {
	case "start":
		clientID := uuid.NewString()
		if len(args) > 0 {
			clientID = args[0]
		}
		sessionID, err := sessions.Start(ctx, clientID)
		if err != nil {
			return err
		}
		logger.Info("Started session",
			zap.String("session_id", sessionID),
			zap.String("client_id", clientID),
			zap.String("workflow_id", httpapi.WorkflowID(sessionID)),
		)
		fmt.Println(sessionID)
		return nil

	case "query":
		if len(args) != 1 {
			return errors.New(usage)
		}
		state, err := sessions.State(ctx, args[0])
		if err != nil {
			return err
		}
		return printState(state)

	case "event":
		if len(args) < 2 {
			return errors.New(usage)
		}
		event, err := parseEvent(args[1], args[2:])
		if err != nil {
			return err
		}
		state, err := sessions.Apply(ctx, args[0], event)
		if err != nil {
			return fmt.Errorf("event %s rejected: %w", event.Type, err)
		}
		return printState(state)

	case "signal":
		if len(args) < 2 {
			return errors.New(usage)
		}
		event, err := parseEvent(args[1], args[2:])
		if err != nil {
			return err
		}
		if err := c.SignalWorkflow(ctx, httpapi.WorkflowID(args[0]), "", workflows.SignalEvent, event); err != nil {
			return fmt.Errorf("failed to send signal: %w", err)
		}
		logger.Info("Signal sent", zap.String("session_id", args[0]), zap.String("type", string(event.Type)))
		return nil
	}

	return fmt.Errorf("unknown command %q\n%s", command, usage)
}

// parseEvent builds an event from its type and key=value pairs
func parseEvent(eventType string, pairs []string) (models.Event, error) {
	event := models.Event{Type: models.EventType(eventType)}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return event, fmt.Errorf("invalid argument %q, want key=value", pair)
		}
		switch key {
		case "field":
			event.Field = value
		case "value":
			event.Value = value
		case "domain":
			event.Domain = value
		case "price":
			event.Price = value
		default:
			return event, fmt.Errorf("unknown event key %q", key)
		}
	}
	return event, nil
}

func printState(state models.SessionState) error {
	stateJSON, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	fmt.Println(string(stateJSON))
	return nil
}
