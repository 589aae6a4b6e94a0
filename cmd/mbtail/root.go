package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	mb "github.com/sigmavirus24/gomessagebus"
	"github.com/sigmavirus24/gomessagebus/extensions/auth"
	"github.com/sigmavirus24/gomessagebus/extensions/cursors"
)

type line struct {
	Channel mb.Channel      `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// newRootCommand builds the mbtail command. transport, when not nil, carries
// every poll request.
func newRootCommand(transport http.RoundTripper) *cobra.Command {
	root := &cobra.Command{
		Use:          "mbtail [channel...]",
		Short:        "Print every message published on message bus channels",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}
			return run(cmd, cfg, transport)
		},
	}

	flags := root.Flags()
	flags.StringP("config", "c", "", "path to a YAML config file")
	flags.StringP("server", "s", "", "the message bus server address")
	flags.String("token", "", "bearer token sent to the server")
	flags.String("loglevel", "error", "the level to log at")
	flags.Bool("long-polling", true, "let the server hold poll requests open")
	flags.Duration("callback-interval", mb.DefaultCallbackInterval, "base delay after a poll without messages")
	flags.Duration("max-poll-interval", mb.DefaultMaxPollInterval, "longest delay between polls")
	flags.String("redis-addr", "", "store cursors in redis at this address so restarts resume")
	flags.String("redis-key", cursors.DefaultRedisKey, "redis hash holding the cursors")
	return root
}

func run(cmd *cobra.Command, cfg config, transport http.RoundTripper) error {
	ctx := cmd.Context()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)

	serverAddress, err := url.Parse(cfg.Server)
	if err != nil || serverAddress.Host == "" {
		return fmt.Errorf("invalid server address %q", cfg.Server)
	}

	if cfg.Token != "" {
		transport = &auth.StaticTokenAuthenticator{
			Token:     cfg.Token,
			Hosts:     []string{serverAddress.Hostname()},
			Transport: transport,
		}
	}

	visibility := &mb.ToggleVisibility{}
	opts := []mb.Option{
		mb.WithLogger(logger),
		mb.WithLongPolling(cfg.LongPolling),
		mb.WithCallbackInterval(cfg.CallbackInterval),
		mb.WithMaxPollInterval(cfg.MaxPollInterval),
		mb.WithVisibility(visibility),
	}
	if transport != nil {
		opts = append(opts, mb.WithHTTPTransport(transport))
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("issue reaching redis at %s (%w)", cfg.RedisAddr, err)
		}
		store := cursors.NewRedisStorage(rdb, cfg.RedisKey)
		opts = append(opts, mb.WithExtension(cursors.ExtensionName, cursors.New(store, cursors.WithLogger(logger))))
	}

	client, err := mb.NewClient(cfg.Server, opts...)
	if err != nil {
		return err
	}
	logger.WithField("client_id", client.ClientID()).Debug("got client")

	out := newPrinter(cmd.OutOrStdout())
	for _, name := range cfg.Channels {
		channel := mb.Channel(name)
		if err := client.Subscribe(channel, out.callback(channel, logger)); err != nil {
			return err
		}
	}

	go watchVisibility(ctx, visibility, logger)

	if err := client.Start(ctx); err != nil {
		return err
	}
	<-client.Done()
	return nil
}

type printer struct {
	lock sync.Mutex
	enc  *json.Encoder
}

func newPrinter(w io.Writer) *printer {
	return &printer{enc: json.NewEncoder(w)}
}

func (p *printer) callback(channel mb.Channel, logger logrus.FieldLogger) mb.Callback {
	return func(data json.RawMessage) {
		p.lock.Lock()
		defer p.lock.Unlock()
		if err := p.enc.Encode(line{Channel: channel, Data: data}); err != nil {
			logger.WithError(err).WithField("channel", channel).Error("could not print message")
		}
	}
}
