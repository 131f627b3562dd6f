// Command obfuscate masks PII fields of one object and prints or stores
// the result.
//
//	obfuscate --request req.json
//	obfuscate --source file://exports/students.csv --fields name,email --out masked.csv
//	echo '{"file_to_obfuscate": "...", "pii_fields": ["email"]}' | obfuscate --request -
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"obfuscator/internal/bootstrap"
	"obfuscator/internal/obfuscation/models"
	"obfuscator/internal/obfuscation/service"
	"obfuscator/internal/platform/config"
	"obfuscator/internal/platform/logger"
	"obfuscator/internal/platform/redis"
	pstrings "obfuscator/pkg/platform/strings"
)

// usageError marks bad invocations, which exit with status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }
func (usageError) ExitCode() int   { return 2 }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "obfuscate: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

type options struct {
	request     string
	source      string
	fields      []string
	destination string
	out         string
	envFile     string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	flagSet := pflag.NewFlagSet("obfuscate", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&o.request, "request", "r", "", `JSON request envelope file, or "-" for stdin`)
	flagSet.StringVarP(&o.source, "source", "s", "", "source locator, scheme://container/path")
	flagSet.StringSliceVarP(&o.fields, "fields", "f", nil, "comma-separated PII field names")
	flagSet.StringVarP(&o.destination, "destination", "d", "", "write the result to this locator instead of stdout")
	flagSet.StringVarP(&o.out, "out", "o", "", "write the result to this local file instead of stdout")
	flagSet.StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	if err := flagSet.Parse(args); err != nil {
		return o, err
	}
	if flagSet.NArg() > 0 {
		return o, usageError{fmt.Sprintf("unexpected arguments: %v", flagSet.Args())}
	}
	switch {
	case o.request != "" && o.source != "":
		return o, usageError{"--request and --source are mutually exclusive"}
	case o.request == "" && o.source == "":
		return o, usageError{"one of --request or --source is required"}
	case o.source != "" && !flagSet.Changed("fields"):
		return o, usageError{"--source needs --fields"}
	case o.out != "" && o.destination != "":
		return o, usageError{"--out and --destination are mutually exclusive"}
	}
	return o, nil
}

func (o options) buildRequest(stdin io.Reader) (models.Request, error) {
	if o.source != "" {
		return models.Request{
			Locator:     o.source,
			PIIFields:   models.NewFieldSet(pstrings.DedupeAndTrim(o.fields)...),
			Destination: o.destination,
		}, nil
	}

	var (
		data []byte
		err  error
	)
	if o.request == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(o.request)
	}
	if err != nil {
		return models.Request{}, fmt.Errorf("read request: %w", err)
	}
	req, err := models.ParseRequest(data)
	if err != nil {
		return models.Request{}, err
	}
	if o.destination != "" {
		req.Destination = o.destination
	}
	return req, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(stderr, cfg.Log.Level, cfg.Log.Format)

	req, err := o.buildRequest(stdin)
	if err != nil {
		return err
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}
	stores, err := bootstrap.Stores(ctx, cfg.Storage, rdb, log)
	if err != nil {
		return err
	}
	auditSink, err := bootstrap.AuditSink(ctx, cfg.Audit, log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := auditSink.Close(); err != nil {
			log.Error("Error closing audit sink", "error", err)
		}
	}()

	svcOpts := []service.Option{service.WithLogger(log)}
	if auditSink.Publisher != nil {
		svcOpts = append(svcOpts, service.WithAuditPublisher(auditSink.Publisher))
	}
	res, err := service.New(stores, svcOpts...).ObfuscateTo(ctx, req)
	if err != nil {
		return err
	}

	if res.Destination != "" {
		log.Info("obfuscated object written",
			slog.String("destination", res.Destination),
			slog.Int("rows", res.Rows),
		)
		return nil
	}
	if o.out != "" {
		if err := os.WriteFile(o.out, res.Bytes, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	_, err = stdout.Write(res.Bytes)
	return err
}
