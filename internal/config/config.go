package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/xattr"
	"gopkg.in/yaml.v3"

	"github.com/glxcee/storm-tape/internal/pathresolver"
	"github.com/glxcee/storm-tape/internal/probe"
)

// ConfigurationError wraps any failure encountered while loading or
// validating the configuration file. It must abort startup before any
// request is served (spec.md section 7).
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string { return e.msg }

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

var storageAreaNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

// TelemetryConfiguration configures the OpenTelemetry tracer provider (see
// internal/telemetry).
type TelemetryConfiguration struct {
	ServiceName     string `yaml:"service-name"`
	TracingEndpoint string `yaml:"tracing-endpoint"`
}

// rawStorageArea is the YAML shape of one storage area; AccessPoint may be
// a single string or a list of strings in the document, so it is decoded
// through accessPointList before being folded into StorageArea.
type rawStorageArea struct {
	Name        string          `yaml:"name"`
	Root        string          `yaml:"root"`
	AccessPoint accessPointList `yaml:"access-point"`
}

// accessPointList decodes YAML's "one string or a list of strings" shape
// for the access-point key.
type accessPointList []string

func (a *accessPointList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*a = accessPointList{s}
		return nil
	case yaml.SequenceNode:
		var s []string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*a = accessPointList(s)
		return nil
	default:
		return fmt.Errorf("access-point must be a string or a list of strings")
	}
}

type rawConfig struct {
	Port         *int                    `yaml:"port"`
	LogLevel     *int                    `yaml:"log-level"`
	MirrorMode   *bool                   `yaml:"mirror-mode"`
	Concurrency  *int                    `yaml:"concurrency"`
	DatabasePath string                  `yaml:"database-path"`
	Telemetry    *TelemetryConfiguration `yaml:"telemetry"`
	StorageAreas []rawStorageArea        `yaml:"storage-areas"`
}

// Configuration is the fully validated, ready-to-use configuration of a
// StoRM-Tape instance.
type Configuration struct {
	Port         uint16
	LogLevel     int
	MirrorMode   bool
	Concurrency  int
	DatabasePath string
	Telemetry    *TelemetryConfiguration
	StorageAreas []pathresolver.StorageArea
}

const (
	defaultPort         = 8080
	defaultLogLevel     = 1
	defaultConcurrency  = 1
	defaultServiceName  = "storm-tape"
	defaultDatabasePath = "storm-tape.sqlite"
)

// Load reads and validates the configuration file at path.
func Load(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, configErrorf("cannot open configuration file '%s': %v", path, err)
	}
	defer f.Close()

	var raw rawConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(false)
	if err := dec.Decode(&raw); err != nil {
		return nil, configErrorf("invalid configuration file '%s': %v", path, err)
	}

	return validate(raw)
}

func validate(raw rawConfig) (*Configuration, error) {
	cfg := &Configuration{
		Port:         defaultPort,
		LogLevel:     defaultLogLevel,
		Concurrency:  defaultConcurrency,
		DatabasePath: defaultDatabasePath,
	}

	if raw.Port != nil {
		if *raw.Port <= 0 || *raw.Port > 65535 {
			return nil, configErrorf("invalid 'port' entry in configuration")
		}
		cfg.Port = uint16(*raw.Port)
	}

	if raw.LogLevel != nil {
		if *raw.LogLevel < 0 || *raw.LogLevel > 4 {
			return nil, configErrorf("invalid 'log-level' entry in configuration")
		}
		cfg.LogLevel = *raw.LogLevel
	}

	if raw.MirrorMode != nil {
		cfg.MirrorMode = *raw.MirrorMode
	}

	if raw.Concurrency != nil {
		if *raw.Concurrency <= 0 {
			return nil, configErrorf("invalid 'concurrency' entry in configuration")
		}
		cfg.Concurrency = *raw.Concurrency
	}

	if raw.DatabasePath != "" {
		cfg.DatabasePath = raw.DatabasePath
	}

	if raw.Telemetry != nil {
		telemetry := *raw.Telemetry
		if telemetry.ServiceName == "" {
			telemetry.ServiceName = defaultServiceName
		}
		cfg.Telemetry = &telemetry
	}

	areas, err := loadStorageAreas(raw.StorageAreas, cfg.MirrorMode)
	if err != nil {
		return nil, err
	}
	cfg.StorageAreas = areas

	return cfg, nil
}

func loadStorageAreas(raw []rawStorageArea, mirrorMode bool) ([]pathresolver.StorageArea, error) {
	if len(raw) == 0 {
		return nil, configErrorf("configuration error - empty 'storage-areas' entry")
	}

	areas := make([]pathresolver.StorageArea, 0, len(raw))
	for _, r := range raw {
		area, err := loadStorageArea(r, mirrorMode)
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}

	sort.SliceStable(areas, func(i, j int) bool {
		return strings.ToLower(areas[i].Name) < strings.ToLower(areas[j].Name)
	})

	for i := 1; i < len(areas); i++ {
		if strings.EqualFold(areas[i-1].Name, areas[i].Name) {
			return nil, configErrorf("two storage areas have the same name '%s'", areas[i].Name)
		}
	}

	type apEntry struct {
		prefix string
		area   string
	}
	var aps []apEntry
	for _, a := range areas {
		for _, ap := range a.AccessPoints {
			aps = append(aps, apEntry{prefix: ap, area: a.Name})
		}
	}
	sort.SliceStable(aps, func(i, j int) bool { return aps[i].prefix < aps[j].prefix })
	for i := 1; i < len(aps); i++ {
		if aps[i-1].prefix == aps[i].prefix {
			return nil, configErrorf(
				"storage areas '%s' and '%s' have the access point '%s' in common",
				aps[i-1].area, aps[i].area, aps[i].prefix)
		}
	}

	return areas, nil
}

func loadStorageArea(raw rawStorageArea, mirrorMode bool) (pathresolver.StorageArea, error) {
	name := raw.Name
	if name == "" {
		return pathresolver.StorageArea{}, configErrorf("there is a storage area with an empty string name")
	}
	if !storageAreaNameRe.MatchString(name) {
		return pathresolver.StorageArea{}, configErrorf("invalid storage area name '%s'", name)
	}

	if raw.Root == "" {
		return pathresolver.StorageArea{}, configErrorf("storage area '%s' has no root", name)
	}
	if !strings.HasPrefix(raw.Root, "/") {
		return pathresolver.StorageArea{}, configErrorf(
			"root '%s' of storage area '%s' is not an absolute path", raw.Root, name)
	}

	if err := checkRoot(name, raw.Root, mirrorMode); err != nil {
		return pathresolver.StorageArea{}, err
	}

	if len(raw.AccessPoint) == 0 {
		return pathresolver.StorageArea{}, configErrorf("storage area '%s' has no access-point", name)
	}
	for _, ap := range raw.AccessPoint {
		if !strings.HasPrefix(ap, "/") {
			return pathresolver.StorageArea{}, configErrorf(
				"access point '%s' of storage area '%s' is not an absolute path", ap, name)
		}
	}

	return pathresolver.StorageArea{
		Name:         name,
		Root:         raw.Root,
		AccessPoints: append([]string(nil), raw.AccessPoint...),
	}, nil
}

func checkRoot(name, root string, mirrorMode bool) error {
	st, err := os.Stat(root)
	if err != nil {
		return configErrorf("root '%s' of storage area '%s' does not exist", root, name)
	}
	if !st.IsDir() {
		return configErrorf("root '%s' of storage area '%s' is not a directory", root, name)
	}

	if mirrorMode {
		return nil
	}

	if !stormHasAllPermissions(root) {
		return configErrorf("root '%s' of storage area '%s' has invalid permissions", root, name)
	}
	return nil
}

// stormHasAllPermissions creates a throwaway file under root, verifies it
// can be written, read, and xattr-ed, then removes it. This reproduces
// original_source/storm-tape/src/configuration.cpp's
// storm_has_all_permissions exactly: startup must fail loudly if the
// filesystem backing a non-mirror storage area cannot support the
// take-over protocol's sentinel attribute.
func stormHasAllPermissions(root string) bool {
	probePath := root + "/" + uuid.NewString()
	defer os.Remove(probePath)

	if err := os.WriteFile(probePath, []byte{}, 0o644); err != nil {
		return false
	}
	if _, err := os.ReadFile(probePath); err != nil {
		return false
	}
	if err := xattr.Set(probePath, probe.XattrTSMRecT, []byte{}); err != nil {
		return false
	}
	if _, err := xattr.Get(probePath, probe.XattrTSMRecT); err != nil {
		return false
	}
	return true
}
