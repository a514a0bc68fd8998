package providers

import (
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Config controls the built-in providers.
type Config struct {
	// Latency scales the simulated application delays. Zero disables them.
	Latency time.Duration
	// FilesRoot confines the files provider. Empty means the whole Fs.
	FilesRoot string
	// Fs backs the files provider; defaults to the OS filesystem.
	Fs afero.Fs
	// Now defaults to time.Now.
	Now func() time.Time
}

// Aliases maps application names to the canonical target they share.
var Aliases = map[string]string{
	"excel":   "spreadsheet",
	"word":    "document",
	"outlook": "mail-client",
	"file":    "files",
}

// Builtins are the providers registered by RegisterDefaults, keyed by target.
type Builtins struct {
	Files     *FileProvider
	Clipboard *Clipboard
	Providers map[string]service.Provider
}

// New builds every built-in provider without registering them.
func New(cfg Config) *Builtins {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	sim := simulator{latency: cfg.Latency, now: cfg.Now}
	clip := &Clipboard{}
	files := NewFileProvider(cfg.Fs, cfg.FilesRoot)

	return &Builtins{
		Files:     files,
		Clipboard: clip,
		Providers: map[string]service.Provider{
			"email":       newEmailProvider(sim),
			"spreadsheet": newSpreadsheetProvider(sim),
			"browser":     newBrowserProvider(sim),
			"system":      newSystemProvider(sim),
			"ocr":         newOCRProvider(sim),
			"files":       files,
			"document":    newDocumentProvider(sim),
			"mail-client": newMailClientProvider(sim),
			"clipboard":   newClipboardProvider(sim, clip),
		},
	}
}

// RegisterDefaults registers the built-in providers and their aliases.
func RegisterDefaults(reg *service.ProviderRegistry, cfg Config) (*Builtins, error) {
	b := New(cfg)
	for target, p := range b.Providers {
		if err := reg.Register(target, p); err != nil {
			return nil, errors.Wrapf(err, "register %s", target)
		}
	}
	for alias, target := range Aliases {
		if err := reg.Register(alias, b.Providers[target]); err != nil {
			return nil, errors.Wrapf(err, "register alias %s", alias)
		}
	}
	return b, nil
}
