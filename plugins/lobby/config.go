package lobby

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EraCount is the number of eras reachable from the lobby.
const EraCount = 7

//go:embed config.yml
var defaultConfig []byte

// ErrIncompleteConfig is returned when a required section or key is missing.
var ErrIncompleteConfig = errors.New("configuration incomplete")

// Config is the content of config.yml.
type Config struct {
	General     General              `yaml:"geral"`
	Lobby       LobbyConfig          `yaml:"lobby"`
	Eras        map[string]EraConfig `yaml:"eras"`
	Permissions PermissionConfig     `yaml:"permissoes"`

	// Set by Load for the top level sections found in the file.
	present map[string]bool
}

// General holds the `geral` section.
type General struct {
	Language     string   `yaml:"idioma"`
	Prefix       string   `yaml:"prefixo"`
	Debug        bool     `yaml:"debug"`
	WorldsFolder string   `yaml:"pasta_mundos"`
	Worlds       []string `yaml:"mundos"`
}

// LobbyConfig holds the `lobby` section.
type LobbyConfig struct {
	World             string  `yaml:"mundo_nome"`
	TeleportCooldown  int     `yaml:"teleport_cooldown"`
	Protection        bool    `yaml:"protecao_ativada"`
	NavigationItems   bool    `yaml:"itens_navegacao"`
	SpawnX            float64 `yaml:"spawn_x"`
	SpawnY            float64 `yaml:"spawn_y"`
	SpawnZ            float64 `yaml:"spawn_z"`
	EraRadius         float64 `yaml:"raio_eras"`
	ProximityDistance float64 `yaml:"raio_proximidade"`
}

// EraConfig holds one `eras.era_N` entry.
type EraConfig struct {
	Name     string `yaml:"nome"`
	Period   string `yaml:"periodo"`
	World    string `yaml:"mundo"`
	Unlocked bool   `yaml:"desbloqueada"`
}

// PermissionConfig holds the `permissoes` section.
type PermissionConfig struct {
	Defaults []string `yaml:"padrao"`
}

// DefaultConfig returns the configuration written on first start.
func DefaultConfig() Config {
	conf, err := ParseConfig(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("parse embedded config: %v", err))
	}
	return conf
}

// ParseConfig decodes data on top of the built-in defaults and validates the
// result.
func ParseConfig(data []byte) (Config, error) {
	conf := Config{
		General: General{Language: "pt-BR", WorldsFolder: "worlds"},
		Lobby: LobbyConfig{
			World:             "lobby",
			TeleportCooldown:  3,
			Protection:        true,
			NavigationItems:   true,
			SpawnY:            100,
			EraRadius:         20,
			ProximityDistance: 3,
		},
	}
	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	conf.present = make(map[string]bool, len(sections))
	for k := range sections {
		conf.present[k] = true
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Validate checks that the required sections and keys are present.
func (c Config) Validate() error {
	for _, section := range []string{"geral", "lobby", "eras"} {
		if c.present != nil && !c.present[section] {
			return fmt.Errorf("%w: missing section %q", ErrIncompleteConfig, section)
		}
	}
	if c.Lobby.World == "" {
		return fmt.Errorf("%w: lobby.mundo_nome is empty", ErrIncompleteConfig)
	}
	if c.Lobby.TeleportCooldown < 0 {
		return fmt.Errorf("lobby.teleport_cooldown must not be negative, got %d", c.Lobby.TeleportCooldown)
	}
	return nil
}

// Cooldown returns the teleport cooldown as a duration.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.Lobby.TeleportCooldown) * time.Second
}

// Era returns the entry of era n. ok is false when the era has no entry.
func (c Config) Era(n int) (era EraConfig, ok bool) {
	era, ok = c.Eras["era_"+strconv.Itoa(n)]
	return era, ok
}

// LoadConfig reads path, writing the default configuration first when the
// file does not exist.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Config{}, fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(path, defaultConfig, 0o644); err != nil {
			return Config{}, fmt.Errorf("write default config: %w", err)
		}
		data = defaultConfig
	} else if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// SaveConfig writes the lobby settings changed at runtime back to path. Only
// the affected keys are replaced so that comments in the file survive.
func SaveConfig(path string, c Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("%w: empty document", ErrIncompleteConfig)
	}
	lobby := mappingValue(doc.Content[0], "lobby")
	if lobby == nil {
		return fmt.Errorf("%w: missing section %q", ErrIncompleteConfig, "lobby")
	}
	setScalar(lobby, "teleport_cooldown", strconv.Itoa(c.Lobby.TeleportCooldown), "!!int")
	setScalar(lobby, "protecao_ativada", strconv.FormatBool(c.Lobby.Protection), "!!bool")
	setScalar(lobby, "itens_navegacao", strconv.FormatBool(c.Lobby.NavigationItems), "!!bool")

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setScalar(m *yaml.Node, key, value, tag string) {
	if v := mappingValue(m, key); v != nil {
		v.Kind, v.Tag, v.Value, v.Style = yaml.ScalarNode, tag, value, 0
		return
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
	)
}
