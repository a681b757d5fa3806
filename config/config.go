// Package config loads the YAML configuration shared by wasmshipd and the
// wasmship client.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wasmship/wasmship/errors"
	"github.com/wasmship/wasmship/internal/logging"
	"github.com/wasmship/wasmship/runtime"
)

// validate is shared; validator caches struct metadata per type.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("listen_addr", isListenAddr); err != nil {
		panic(err)
	}
	return v
}

// isListenAddr accepts host:port where host may be empty, an IP literal
// (bracketed for IPv6) or a name, and port is 0-65535. Port 0 asks the
// kernel for a free port.
func isListenAddr(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return false
	}
	return !strings.ContainsAny(host, " /\t")
}

const (
	DefaultListen   = "127.0.0.1:7878"
	DefaultEndpoint = "http://127.0.0.1:7878/rpc"
)

type Config struct {
	// Engine names the registered backend used for every module.
	Engine  string                    `yaml:"engine" validate:"required"`
	Modules map[string]runtime.Module `yaml:"modules" validate:"dive"`
	Limits  Limits                    `yaml:"limits"`
	WASI    bool                      `yaml:"wasi"`
	// CacheDir persists compiled code between runs.
	CacheDir string         `yaml:"cache_dir,omitempty"`
	Log      logging.Config `yaml:"log"`
	Server   Server         `yaml:"server"`
	Client   Client         `yaml:"client"`
}

type Limits struct {
	MemoryPages uint32 `yaml:"memory_pages" validate:"lte=65536"`
	Threads     bool   `yaml:"threads"`
}

type Server struct {
	Listen          string        `yaml:"listen" validate:"required,listen_addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type Client struct {
	Endpoint string        `yaml:"endpoint" validate:"required,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
}

func Default() *Config {
	return &Config{
		Engine:  runtime.DefaultEngine,
		Modules: map[string]runtime.Module{},
		Log:     logging.Default(),
		Server: Server{
			Listen:          DefaultListen,
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    time.Minute,
			ShutdownTimeout: 5 * time.Second,
		},
		Client: Client{
			Endpoint: DefaultEndpoint,
			Timeout:  time.Minute,
		},
	}
}

// Load reads path on top of Default. Unknown keys are rejected and
// relative module paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("read "+path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes and validates YAML on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Config("decode yaml", err)
	}
	if cfg.Modules == nil {
		cfg.Modules = map[string]runtime.Module{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and returns a config error naming every
// offending field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Config("validate", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %s", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag())
	}
	return errors.Config(strings.Join(msgs, "; "), nil)
}

func (c *Config) resolvePaths(base string) {
	for name, m := range c.Modules {
		if !filepath.IsAbs(m.Path) {
			m.Path = filepath.Join(base, m.Path)
			c.Modules[name] = m
		}
	}
	if c.CacheDir != "" && !filepath.IsAbs(c.CacheDir) {
		c.CacheDir = filepath.Join(base, c.CacheDir)
	}
}

// ModuleNames returns the configured module names in order.
func (c *Config) ModuleNames() []string {
	names := make([]string, 0, len(c.Modules))
	for name := range c.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackendOptions translates the engine related settings.
func (c *Config) BackendOptions() runtime.Options {
	return runtime.Options{
		CacheDir:         c.CacheDir,
		MemoryLimitPages: c.Limits.MemoryPages,
		WASI:             c.WASI,
		EnableThreads:    c.Limits.Threads,
	}
}

// Resolver resolves a reference to a configured module by name, falling
// back to a path ending in .wasm.
func (c *Config) Resolver() runtime.ModuleResolver {
	return runtime.ResolverFunc(func(ref string) (runtime.Module, error) {
		if m, ok := c.Modules[ref]; ok {
			return m, nil
		}
		if strings.HasSuffix(ref, ".wasm") {
			if _, err := os.Stat(ref); err == nil {
				return runtime.ModuleFromFile(ref, ""), nil
			}
		}
		return runtime.Module{}, errors.NotFound(errors.PhaseLoad, "module", ref)
	})
}
