package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/jsonpage/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "jsonpage.json"

	// DefaultPort is the default preview server port.
	DefaultPort = 3000

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultIndent is the pretty-print indent width in spaces.
	DefaultIndent = 2

	// DefaultPages is used when no pages are configured.
	DefaultPages = "pages/*.json"

	// DefaultRoot is the directory output paths are computed from.
	DefaultRoot = "pages"

	// DefaultPollInterval is how often the watcher scans for changes.
	DefaultPollInterval = 100 * time.Millisecond
)

// Config represents jsonpage.json.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Pages lists the documents to render. Entries may be glob patterns and
	// are relative to the config file.
	Pages []string `json:"pages,omitempty"`

	Build BuildConfig `json:"build,omitempty"`

	Dev DevConfig `json:"dev,omitempty"`

	Publish PublishConfig `json:"publish,omitempty"`

	configPath string
}

// BuildConfig contains output settings.
type BuildConfig struct {
	// Output is the directory or s3:// URL the HTML is written to.
	Output string `json:"output,omitempty"`

	// Root is the source directory mirrored into Output: pages/blog/a.json
	// is written as blog/a.html.
	Root string `json:"root,omitempty"`

	// Minify strips formatting whitespace and comments.
	Minify bool `json:"minify,omitempty"`

	// Pretty indents the output. Ignored when Minify is set.
	Pretty bool `json:"pretty,omitempty"`

	// Indent is the number of spaces per level when Pretty is set.
	Indent int `json:"indent,omitempty"`

	// Escape HTML-escapes text and attribute values.
	Escape bool `json:"escape,omitempty"`
}

// DevConfig contains preview server settings.
type DevConfig struct {
	Port int `json:"port,omitempty"`

	Host string `json:"host,omitempty"`

	// Watch contains directories to watch for document changes.
	Watch []string `json:"watch,omitempty"`

	// Ignore contains glob patterns skipped by the watcher.
	Ignore []string `json:"ignore,omitempty"`

	// HotReload injects the reload client into served pages.
	HotReload *bool `json:"hotReload,omitempty"`

	// PollInterval is a duration string such as "250ms".
	PollInterval string `json:"pollInterval,omitempty"`
}

// PublishConfig contains upload targets.
type PublishConfig struct {
	S3 *S3Config `json:"s3,omitempty"`
}

// S3Config describes an S3 bucket to publish rendered pages to.
type S3Config struct {
	Bucket string `json:"bucket"`
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`

	// PathStyle forces path-style addressing.
	PathStyle bool `json:"pathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads jsonpage.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("J042").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New("J040").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("J040").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("J040").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("J040").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if len(c.Pages) == 0 {
		c.Pages = []string{DefaultPages}
	}
	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
	if c.Build.Root == "" {
		c.Build.Root = DefaultRoot
	}
	if c.Build.Indent == 0 {
		c.Build.Indent = DefaultIndent
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Watch == nil {
		c.Dev.Watch = []string{"."}
	}
	if c.Dev.HotReload == nil {
		on := true
		c.Dev.HotReload = &on
	}
	if c.Dev.PollInterval == "" {
		c.Dev.PollInterval = DefaultPollInterval.String()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("J040").
			WithDetail("dev.port must be between 0 and 65535")
	}
	if c.Build.Indent < 0 || c.Build.Indent > 16 {
		return errors.New("J040").
			WithDetail("build.indent must be between 0 and 16")
	}
	if c.Build.Minify && c.Build.Pretty {
		return errors.New("J040").
			WithDetail("build.minify and build.pretty cannot both be set")
	}
	for _, pattern := range append(append([]string(nil), c.Pages...), c.Dev.Ignore...) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return errors.New("J040").
				WithDetail("invalid glob pattern " + strconv.Quote(pattern)).
				Wrap(err)
		}
	}
	if _, err := time.ParseDuration(c.Dev.PollInterval); err != nil {
		return errors.New("J040").
			WithDetail("dev.pollInterval is not a duration: " + strconv.Quote(c.Dev.PollInterval)).
			Wrap(err)
	}
	if s3 := c.Publish.S3; s3 != nil && s3.Bucket == "" {
		return errors.New("J040").
			WithDetail("publish.s3.bucket is required")
	}
	return nil
}

// HotReloadEnabled reports whether served pages get the reload client.
func (c *Config) HotReloadEnabled() bool {
	return c.Dev.HotReload == nil || *c.Dev.HotReload
}

// Interval returns the watcher poll interval.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.Dev.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// IndentString returns the indent unit for pretty-printing.
func (c *Config) IndentString() string {
	return strings.Repeat(" ", c.Build.Indent)
}

// DevAddress returns the address string for the preview server.
func (c *Config) DevAddress() string {
	return net.JoinHostPort(c.Dev.Host, strconv.Itoa(c.Dev.Port))
}

// DevURL returns the full URL for the preview server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// OutputPath returns the build output location. s3:// URLs are returned as is.
func (c *Config) OutputPath() string {
	if strings.HasPrefix(c.Build.Output, "s3://") {
		return c.Build.Output
	}
	return c.resolve(c.Build.Output)
}

// RootPath returns the absolute source root.
func (c *Config) RootPath() string {
	return c.resolve(c.Build.Root)
}

// WatchPaths returns the absolute directories to watch.
func (c *Config) WatchPaths() []string {
	paths := make([]string, 0, len(c.Dev.Watch))
	for _, p := range c.Dev.Watch {
		paths = append(paths, c.resolve(p))
	}
	return paths
}

// ResolvePages expands Pages into a sorted list of document paths.
func (c *Config) ResolvePages() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range c.Pages {
		matches, err := filepath.Glob(c.resolve(pattern))
		if err != nil {
			return nil, errors.New("J040").
				WithDetail("invalid glob pattern " + strconv.Quote(pattern)).
				Wrap(err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return nil, errors.New("J041")
	}
	sort.Strings(out)
	return out, nil
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing jsonpage.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("J042").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent holding jsonpage.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
