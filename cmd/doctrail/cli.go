package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/n2code/doctrail"
	"github.com/n2code/doctrail/cmd/doctrail/flags"
	"github.com/n2code/doctrail/internal/autosave"
	"github.com/n2code/doctrail/internal/config"
	"github.com/n2code/doctrail/internal/marks"
	"github.com/n2code/doctrail/internal/output"
)

type CliRequest struct {
	verbose     bool
	quiet       bool
	plain       bool
	configFile  string
	action      string
	actionFlags map[string]interface{}
	actionArgs  []string
}

func parseFlags(args []string, out io.Writer, errOut io.Writer) (request *CliRequest, exitCode int) {
	mainFlags := flag.NewFlagSet("", flag.ContinueOnError)
	mainFlags.SetOutput(out)
	mainFlags.Usage = func() {
		fmt.Fprint(mainFlags.Output(), `
Usage:
   doctrail [-v|-q] [-p] [-config FILE] [-h] <ACTION> [FLAG] [TARGET]

 ACTIONs:  save  history  restore  id  watch  mark  marks  recent  verify

`)
		mainFlags.PrintDefaults()
		fmt.Fprint(mainFlags.Output(), `
 FLAG(s) and TARGET(s) are action-specific.
 You can read the help on any action:
    doctrail <ACTION> -h

`)
	}

	request = &CliRequest{}
	mainFlags.BoolVar(&request.verbose, flags.Verbose, false, "Output more details on what is done (verbose mode)")
	mainFlags.BoolVar(&request.quiet, flags.Quiet, false, "Output as little as possible, i.e. only requested information (quiet mode)")
	mainFlags.BoolVar(&request.plain, flags.Plain, false, "Never use ANSI escape sequences for output (plain mode)")
	mainFlags.StringVar(&request.configFile, flags.ConfigFile, "", "Settings file to use instead of the one in the user configuration directory")

	var err error
	defer func() {
		if errors.Is(err, flag.ErrHelp) {
			exitCode = 0
			request = nil
		} else if err != nil {
			fmt.Fprintf(errOut, "%s\nUsage help: doctrail -h\n", err)
			exitCode = 2
			request = nil
		}
	}()

	if err = mainFlags.Parse(args); err != nil {
		return
	}
	if mainFlags.NArg() == 0 {
		err = errors.New("No arguments given!")
		return
	}
	if request.verbose && request.quiet {
		err = errors.New("Quiet mode and verbose mode are mutually exclusive!")
		return
	}

	request.action = mainFlags.Arg(0)
	request.actionFlags = make(map[string]interface{})
	request.actionArgs = mainFlags.Args()[1:]
	actionDescriptionIndent := "  "
	actionDescription := actionDescriptionIndent
	flagSpecification := ""
	argumentSpecification := ""

	actionParams := flag.NewFlagSet(request.action+" action", flag.ContinueOnError)
	actionParams.SetOutput(out)
	actionParams.Usage = func() {
		fmt.Fprintf(actionParams.Output(), `
Usage of %s action:
   doctrail [MODE] %s%s%s

%s
`, request.action, request.action, flagSpecification, argumentSpecification, actionDescription)
		if len(flagSpecification) > 0 {
			fmt.Fprint(actionParams.Output(), `
 Available flags:
`)
		}
		actionParams.PrintDefaults()
		fmt.Fprint(actionParams.Output(), `
 Global MODE documentation can be shown by:
    doctrail -h

`)
	}
	parseAction := func() bool {
		err = actionParams.Parse(request.actionArgs)
		request.actionArgs = actionParams.Args()
		return err == nil
	}
	expectArgs := func(min int, max int) {
		switch n := actionParams.NArg(); {
		case n < min:
			err = errors.New("not enough arguments")
		case max >= 0 && n > max:
			err = errors.New("too many arguments")
		}
	}

	switch request.action {
	case "save":
		flagSpecification = " [-" + flags.SaveWithTimeSpent + " SECONDS]"
		argumentSpecification = " FILEPATH..."
		actionDescription += "Record the current content of the file(s) as a new version.\n" +
			actionDescriptionIndent + "The identity of each document is kept in its file metadata and\n" +
			actionDescriptionIndent + "recovered by content if the metadata got lost."
		request.actionFlags[flags.SaveWithTimeSpent] = actionParams.Uint(flags.SaveWithTimeSpent, 0, "writing time in seconds to attribute to this save")
		if parseAction() {
			expectArgs(1, -1)
		}
	case "history":
		flagSpecification = " [-" + flags.HistoryAsList + "]"
		argumentSpecification = " FILEPATH"
		actionDescription += "Show all recorded versions of the document, grouped by location."
		request.actionFlags[flags.HistoryAsList] = actionParams.Bool(flags.HistoryAsList, false, "print a plain list instead of a tree")
		if parseAction() {
			expectArgs(1, 1)
		}
	case "restore":
		flagSpecification = " [-" + flags.RestoreToFile + " FILEPATH [-" + flags.RestoreWithForce + "]]"
		argumentSpecification = " HASH"
		actionDescription += "Output the content of the version with the given HASH."
		request.actionFlags[flags.RestoreToFile] = actionParams.String(flags.RestoreToFile, "", "write to the given file instead of standard output")
		request.actionFlags[flags.RestoreWithForce] = actionParams.Bool(flags.RestoreWithForce, false, "overwrite an existing file without asking")
		if parseAction() {
			expectArgs(1, 1)
			if err == nil && *(request.actionFlags[flags.RestoreWithForce].(*bool)) && *(request.actionFlags[flags.RestoreToFile].(*string)) == "" {
				err = fmt.Errorf(`flag "-%s" requires "-%s"`, flags.RestoreWithForce, flags.RestoreToFile)
			}
		}
	case "id":
		argumentSpecification = " FILEPATH"
		actionDescription += "Print the identity of the document, creating one if it has none yet."
		if parseAction() {
			expectArgs(1, 1)
		}
	case "watch":
		argumentSpecification = " FILEPATH..."
		actionDescription += "Save the file(s) automatically whenever they change, until interrupted.\n" +
			actionDescriptionIndent + "Writing time is attributed from the change activity."
		if parseAction() {
			expectArgs(1, -1)
		}
	case "mark":
		argumentSpecification = " FILEPATH LINE [NOTE]"
		actionDescription += "Attach a NOTE to the LINE of the document. Without NOTE the mark is removed.\n" +
			actionDescriptionIndent + "Marks belong to the document identity and survive renames."
		if parseAction() {
			expectArgs(2, 3)
			if err == nil {
				if line, convErr := strconv.Atoi(request.actionArgs[1]); convErr != nil || line < 1 {
					err = fmt.Errorf(`bad line number "%s"`, request.actionArgs[1])
				}
			}
		}
	case "marks":
		argumentSpecification = " FILEPATH"
		actionDescription += "List all marks of the document."
		if parseAction() {
			expectArgs(1, 1)
		}
	case "recent":
		actionDescription += "List the most recently saved files."
		if parseAction() {
			expectArgs(0, 0)
		}
	case "verify":
		actionDescription += "Check that all stored versions are intact."
		if parseAction() {
			expectArgs(0, 0)
		}
	default:
		err = fmt.Errorf(`unknown action "%s"`, request.action)
	}
	return
}

func (rq *CliRequest) loadSettings() (*config.Config, error) {
	location := rq.configFile
	if location == "" {
		var err error
		if location, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return config.Load(location)
}

func (rq *CliRequest) execute(out io.Writer, errOut io.Writer) (execErr error) {
	settings, err := rq.loadSettings()
	if err != nil {
		return err
	}
	logger, err := newLogger(settings, rq.verbose, errOut)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	createConfig := doctrail.CreateConfig{
		FancyTerminal: !rq.plain && isTerminal(out),
		Logger:        logger,
		Out:           out,
		ErrOut:        errOut,
	}
	if rq.verbose {
		createConfig.Verbosity = doctrail.VerboseMode
	}
	if rq.quiet {
		createConfig.Verbosity = doctrail.QuietMode
	}

	if rq.action == "recent" {
		for _, path := range settings.Settings.RecentFiles {
			fmt.Fprintln(out, path)
		}
		if len(settings.Settings.RecentFiles) == 0 && !rq.quiet {
			fmt.Fprintln(out, "<no recent files>")
		}
		return nil
	}

	api, err := doctrail.New(settings.Settings.DataDir, createConfig)
	if err != nil {
		return err
	}

	switch rq.action {
	case "save":
		timeSpent := time.Duration(*(rq.actionFlags[flags.SaveWithTimeSpent].(*uint))) * time.Second
		for _, target := range rq.actionArgs {
			data, err := os.ReadFile(target)
			if err != nil {
				return err
			}
			if _, err = api.SaveTracked(target, data, timeSpent); err != nil {
				return err
			}
			rememberRecent(settings, target, logger)
		}
	case "history":
		return api.PrintHistory(rq.actionArgs[0], *(rq.actionFlags[flags.HistoryAsList].(*bool)))
	case "restore":
		target := *(rq.actionFlags[flags.RestoreToFile].(*string))
		if target == "" {
			return api.PrintVersion(rq.actionArgs[0])
		}
		data, err := api.RestoreVersion(rq.actionArgs[0])
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(target); statErr == nil && !*(rq.actionFlags[flags.RestoreWithForce].(*bool)) {
			if !isTerminal(os.Stdin) {
				return fmt.Errorf(`%s exists, use "-%s" to overwrite`, target, flags.RestoreWithForce)
			}
			if !confirm(fmt.Sprintf("Overwrite %s?", target), os.Stdin, out) {
				return errors.New("restore cancelled")
			}
		}
		//in place so that an identity attached to the target survives
		if err = os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		if !rq.quiet {
			fmt.Fprintf(out, "Restored %s to %s\n", output.ContentSize(len(data)), target)
		}
	case "id":
		data, err := os.ReadFile(rq.actionArgs[0])
		if err != nil {
			return err
		}
		metadata, err := api.GetFileMetadata(rq.actionArgs[0], data)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, metadata.Token)
		if !rq.quiet {
			fmt.Fprintln(out, output.HistorySummary(metadata.Versions, metadata.TotalTime))
		}
	case "mark":
		return rq.mark(api)
	case "marks":
		return api.PrintMarks(rq.actionArgs[0])
	case "watch":
		return rq.watch(api, settings, logger, errOut)
	case "verify":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		mismatches, err := api.Verify(ctx)
		if err != nil {
			return err
		}
		for _, hash := range mismatches {
			fmt.Fprintf(out, "corrupted: %s\n", hash)
		}
		if len(mismatches) > 0 {
			return errors.New(output.Count(len(mismatches), "corrupted version", "corrupted versions"))
		}
		if !rq.quiet {
			fmt.Fprintln(out, "all versions intact")
		}
	default:
		panic("bad action")
	}
	return nil
}

func (rq *CliRequest) mark(api doctrail.Doctrail) error {
	path := rq.actionArgs[0]
	line, _ := strconv.Atoi(rq.actionArgs[1]) //validated during parsing
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	token, err := api.GetUuid(path, data)
	if err != nil {
		return err
	}
	lineMarks, err := api.LoadMarks(token)
	if err != nil {
		return err
	}
	if len(rq.actionArgs) == 3 && rq.actionArgs[2] != "" {
		lineMarks[line] = marks.Mark{Note: rq.actionArgs[2]}
	} else {
		delete(lineMarks, line)
	}
	return api.SaveMarks(token, lineMarks)
}

func (rq *CliRequest) watch(api doctrail.Doctrail, settings *config.Config, logger *zap.Logger, errOut io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	worker := autosave.NewWorker(api, autosave.DefaultQueueSize, logger)
	watcher, err := autosave.NewWatcher(worker, autosave.WatchOptions{Interval: settings.Settings.AutosaveInterval}, logger)
	if err != nil {
		worker.Close()
		return err
	}
	for _, target := range rq.actionArgs {
		if err := watcher.Add(target); err != nil {
			watcher.Stop()
			worker.Close()
			return err
		}
	}

	reported := make(chan struct{})
	failures := 0
	go func() {
		defer close(reported)
		for result := range worker.Results() {
			if result.Err != nil {
				failures++
				fmt.Fprintf(errOut, "saving %s failed: %s\n", result.Request.Path, result.Err)
				continue
			}
			rememberRecent(settings, result.Request.Path, logger)
		}
	}()

	watcher.Start(ctx)
	<-ctx.Done()
	watcher.Stop()
	worker.Close()
	<-reported
	if failures > 0 {
		return fmt.Errorf("%s failed", output.Count(failures, "save", "saves"))
	}
	return nil
}

func rememberRecent(settings *config.Config, path string, logger *zap.Logger) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return
	}
	settings.AddRecentFile(absolute)
	if err := settings.Save(); err != nil {
		logger.Warn("recent files not updated", zap.Error(err))
	}
}

func main() {
	rq, rc := parseFlags(os.Args[1:], os.Stdout, os.Stderr)
	if rc != 0 || rq == nil {
		os.Exit(rc)
	}
	if err := rq.execute(os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}
