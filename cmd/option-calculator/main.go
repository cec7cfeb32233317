package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/option-calculator/internal/config"
	"github.com/iwvelando/option-calculator/internal/form"
	"github.com/iwvelando/option-calculator/internal/logging"
	"github.com/iwvelando/option-calculator/internal/pricing"
	"github.com/iwvelando/option-calculator/pkg/constants"
	"github.com/iwvelando/option-calculator/pkg/output"
	"github.com/iwvelando/option-calculator/pkg/timeunit"
	"github.com/iwvelando/option-calculator/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	put := flag.Bool("put", false, "price a put option instead of a call")
	unitFlag := flag.String("unit", "", "time to maturity unit override: year, month, day")
	values := map[validation.Field]*string{}
	for _, field := range validation.Fields() {
		rule := validation.Rules[field]
		values[field] = flag.String(string(field), "", fmt.Sprintf("%s (%s)", rule.Label, rule.Hint))
	}
	flag.Parse()

	// The default config file is optional; an explicit one is not.
	path := *configLocation
	if path == constants.DefaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	unit, err := conf.Form.Unit()
	if *unitFlag != "" {
		unit, err = timeunit.ParseUnit(*unitFlag)
	}
	if err != nil {
		logger.Fatal("failed to resolve time unit",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	client := pricing.NewClient(conf.Pricing, logger)
	controller := form.NewController(client, pricing.NewAdapter(conf.Form.FallbackMessage), logger)
	defer controller.Close()

	for field, value := range values {
		controller.Edit(field, *value)
	}
	controller.SetUnit(unit)
	controller.SetOptionType(!*put)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := controller.Submit(ctx)
	if errors.Is(err, form.ErrInvalidForm) {
		for _, field := range validation.Fields() {
			if msg := state.Errors[field]; msg != "" {
				fmt.Fprintf(os.Stderr, "-%s: %s\n", field, msg)
			}
		}
		logger.Error("invalid input",
			zap.String("op", "main"),
			zap.Int("fields", len(state.FieldErrors())),
		)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, state.Error)
		logger.Error("failed to price option",
			zap.String("op", "main"),
			zap.String("url", client.URL()),
			zap.Error(err),
		)
		os.Exit(1)
	}

	req, err := pricing.Build(state.Input, state.Unit)
	if err != nil {
		logger.Fatal("failed to rebuild submitted request",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	quote := output.Quote{
		Request:        req,
		Result:         *state.Result,
		CurrencySymbol: conf.Form.CurrencySymbol,
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(os.Stdout, quote)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, []output.Quote{quote})
	case constants.OutputFormatJSON:
		err = output.JSONFormat(os.Stdout, quote)
	}
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
