package xmlaccess

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
)

// ValidationHandler receives schema findings. Findings never abort a load.
type ValidationHandler func(v *Violation)

type loadOptions struct {
	handler ValidationHandler
	logger  *slog.Logger
}

// LoadOption is a functional option for Load.
type LoadOption func(*loadOptions)

// WithValidationHandler sets the receiver of schema findings.
// The default handler logs each finding at warn level.
func WithValidationHandler(h ValidationHandler) LoadOption {
	return func(o *loadOptions) {
		o.handler = h
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Load reads dataPath, validates it against schemaPath when that file
// exists, and returns the document element, which must be named rootName.
//
// A missing data file is reported before the schema is looked at. An empty
// or missing schemaPath skips validation.
func Load(dataPath, schemaPath, rootName string, opts ...LoadOption) (*Node, error) {
	o := loadOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.handler == nil {
		o.handler = logViolation(o.logger)
	}

	if !fileExists(dataPath) {
		return nil, &MissingFileError{What: "data file", Path: dataPath}
	}

	root, err := parseFile(dataPath)
	if err != nil {
		return nil, err
	}

	if schemaPath != "" && fileExists(schemaPath) {
		schema, err := LoadSchema(schemaPath)
		if err != nil {
			return nil, err
		}
		count := reportViolations(schema.Validate(root), dataPath, o.handler)
		o.logger.Debug("schema validation complete",
			slog.String("file", dataPath),
			slog.String("schema", schemaPath),
			slog.Int("violations", count),
		)
	} else {
		o.logger.Debug("schema validation skipped",
			slog.String("file", dataPath),
			slog.String("schema", schemaPath),
		)
	}

	if root.name != rootName {
		return nil, &RootNotFoundError{Path: dataPath, Root: rootName, Found: root.name}
	}

	return root, nil
}

// parseFile parses path, closing the file on every return path.
func parseFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	root, err := Parse(f)
	if err != nil {
		return nil, &MalformedDocumentError{Path: path, Err: err}
	}
	return root, nil
}

func reportViolations(err error, file string, handler ValidationHandler) int {
	if err == nil {
		return 0
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		handler(&Violation{File: file, Path: "/", Message: err.Error()})
		return 1
	}

	for _, e := range merr.Errors {
		var v *Violation
		if !errors.As(e, &v) {
			v = &Violation{Path: "/", Message: e.Error()}
		}
		v.File = file
		handler(v)
	}
	return len(merr.Errors)
}

func logViolation(logger *slog.Logger) ValidationHandler {
	return func(v *Violation) {
		logger.Warn("schema validation error",
			slog.String("file", v.File),
			slog.String("path", v.Path),
			slog.String("message", v.Message),
		)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
