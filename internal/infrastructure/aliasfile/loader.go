package aliasfile

import (
	"context"
	_ "embed"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/riskibarqy/fpl-oracle/internal/domain/alias"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
)

//go:embed aliases.yaml
var builtin []byte

type entry struct {
	From string `koanf:"from" validate:"required"`
	To   string `koanf:"to" validate:"required"`
}

type sourceEntries struct {
	Players []entry `koanf:"players" validate:"dive"`
	Teams   []entry `koanf:"teams" validate:"dive"`
}

var knownSources = map[string]alias.Source{
	string(alias.SourceFPL):       alias.SourceFPL,
	string(alias.SourceUnderstat): alias.SourceUnderstat,
	string(alias.SourceFBref):     alias.SourceFBref,
}

// bytesProvider feeds an in-memory YAML document to koanf.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) {
	return b, nil
}

func (b bytesProvider) Read() (map[string]any, error) {
	return nil, errors.New("bytes provider does not support Read")
}

// Load builds the alias table from the built-in mappings and, when path is
// set, merges that file on top so its entries replace built-in ones.
func Load(ctx context.Context, path string, logger *logging.Logger) (*alias.Table, error) {
	if logger == nil {
		logger = logging.Default()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())

	table := alias.NewTable()
	if err := apply(ctx, validate, table, bytesProvider(builtin), "builtin"); err != nil {
		return nil, err
	}
	builtinCount := table.Len()

	path = strings.TrimSpace(path)
	if path != "" {
		if err := apply(ctx, validate, table, file.Provider(path), path); err != nil {
			return nil, err
		}
	}

	logger.InfoContext(ctx, "alias tables loaded",
		"builtin_entries", builtinCount,
		"total_entries", table.Len(),
		"override_file", path,
	)
	return table, nil
}

func apply(ctx context.Context, validate *validator.Validate, table *alias.Table, provider koanf.Provider, origin string) error {
	k := koanf.New(".")
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return errors.Wrapf(err, "load aliases from %s", origin)
	}

	var doc map[string]sourceEntries
	if err := k.UnmarshalWithConf("sources", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return errors.Wrapf(err, "decode aliases from %s", origin)
	}

	for name, entries := range doc {
		source, ok := knownSources[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return errors.Newf("aliases from %s: unknown source %q", origin, name)
		}
		if err := validate.StructCtx(ctx, entries); err != nil {
			return errors.Wrapf(err, "aliases from %s: invalid %s entries", origin, name)
		}
		if err := setAll(table, source, alias.EntityPlayer, entries.Players, origin); err != nil {
			return err
		}
		if err := setAll(table, source, alias.EntityTeam, entries.Teams, origin); err != nil {
			return err
		}
	}
	return nil
}

func setAll(table *alias.Table, source alias.Source, entity alias.Entity, entries []entry, origin string) error {
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		from, to := strings.TrimSpace(e.From), strings.TrimSpace(e.To)
		if prev, ok := seen[from]; ok && prev != to {
			return errors.Newf("aliases from %s: %s/%s %q maps to both %q and %q", origin, source, entity, from, prev, to)
		}
		seen[from] = to
		if err := table.Set(source, entity, from, to); err != nil {
			return errors.Wrapf(err, "aliases from %s", origin)
		}
	}
	return nil
}
