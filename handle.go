package doctrail

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/n2code/doctrail/internal/config"
	"github.com/n2code/doctrail/internal/content"
	"github.com/n2code/doctrail/internal/identity"
	"github.com/n2code/doctrail/internal/ledger"
	"github.com/n2code/doctrail/internal/marks"
	out "github.com/n2code/doctrail/internal/output"
)

type VerbosityLevel int

// CreateConfig holds a set of common configuration switches that concern all calls to the doctrail API.
// The zero value is a sensible default.
type CreateConfig struct {
	Verbosity     VerbosityLevel
	FancyTerminal bool              //allow ANSI escape sequences in printed output
	Attacher      identity.Attacher //nil selects the platform's metadata facility
	Logger        *zap.Logger       //nil discards all log output
	Out           io.Writer         //nil means stdout
	ErrOut        io.Writer         //nil means stderr
}

const (
	DefaultVerbosity VerbosityLevel = iota //normal level of information, all noteworthy facts without too much noise
	VerboseMode                            //exhaustive information about what is happening, repeating context
	QuietMode                              //only output errors and information that was explicitly requested (-> Print* functions)
)

const (
	blobsDir   = "blobs"
	historyDir = "history"
	marksDir   = "marks"
)

// New opens the data directory, creating its layout if needed.
func New(dataDir string, createConfig CreateConfig) (Doctrail, error) {
	handle, err := makeDoctrail(mustAbsFilepath(dataDir), createConfig)
	if err != nil {
		return nil, fmt.Errorf("data directory setup error: %w", err)
	}
	return handle, nil
}

// Open uses the data directory named by the user configuration (or its default).
func Open(createConfig CreateConfig) (Doctrail, error) {
	location, err := config.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("config location unknown: %w", err)
	}
	loaded, err := config.Load(location)
	if err != nil {
		return nil, err
	}
	return New(loaded.Settings.DataDir, createConfig)
}

type doctrail struct {
	dataDir  string //absolute, system-native path
	blobs    *content.Store
	history  *ledger.Ledger
	marks    *marks.Store
	resolver *identity.Resolver
	attacher identity.Attacher
	logger   *zap.Logger
	printer  out.Printer
}

func makeDoctrail(dataDir string, createConfig CreateConfig) (*doctrail, error) {
	instance := &doctrail{dataDir: dataDir, attacher: createConfig.Attacher, logger: createConfig.Logger}
	if instance.attacher == nil {
		instance.attacher = identity.Platform()
	}
	if instance.logger == nil {
		instance.logger = zap.NewNop()
	}

	terminal, diagnosis := createConfig.Out, createConfig.ErrOut
	if terminal == nil {
		terminal = os.Stdout
	}
	if diagnosis == nil {
		diagnosis = os.Stderr
	}
	classes := []out.Class{out.Required, out.Error}
	switch createConfig.Verbosity {
	case VerboseMode:
		classes = append(classes, out.Verbose)
		fallthrough
	case DefaultVerbosity:
		classes = append(classes, out.Normal)
	}
	instance.printer = out.NewPrinter(classes, createConfig.FancyTerminal, terminal, diagnosis)

	var err error
	if instance.blobs, err = content.NewStore(filepath.Join(dataDir, blobsDir)); err != nil {
		return nil, err
	}
	if instance.history, err = ledger.New(filepath.Join(dataDir, historyDir), instance.logger); err != nil {
		return nil, err
	}
	if instance.marks, err = marks.NewStore(filepath.Join(dataDir, marksDir)); err != nil {
		return nil, err
	}
	instance.resolver = identity.NewResolver(instance.attacher, instance.history, instance.logger)
	instance.logger.Debug("data directory ready", zap.String("path", dataDir))
	return instance, nil
}

func (d *doctrail) Print(class out.Class, format string, values ...interface{}) {
	d.printer.Out(class, format, values...)
}

func (d *doctrail) DataDir() string {
	return d.dataDir
}
