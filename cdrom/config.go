package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Load the `cdrom:` drive list and driver options from a YAML
 *		preferences file (§6).
 *
 * Description:	Grounded on deviceid.go's gopkg.in/yaml.v3 use for
 *		tocalls.yaml; unlike that file's map[string]interface{}
 *		shenanigans, the config surface here is small enough to
 *		unmarshal straight into a struct.
 *
 *------------------------------------------------------------------*/

import (
	"os"

	"gopkg.in/yaml.v3"
)

// GPIOEjectConfig names the GPIO chip/line backing a physical eject button
// (§4.11). Zero value means no GPIO eject button is configured.
type GPIOEjectConfig struct {
	Chip string `yaml:"chip"`
	Line int    `yaml:"line"`
}

// ShareConfig controls mDNS/DNS-SD advertisement of a local backend (§4.12).
type ShareConfig struct {
	Advertise bool   `yaml:"advertise"`
	Name      string `yaml:"name"`
}

// Config is the preference-key surface named in spec.md §6, extended with
// the ambient/domain options named in SPEC_FULL.md §6.
type Config struct {
	CDROM          []string        `yaml:"cdrom"`
	MountNonHFS    bool            `yaml:"mount_non_hfs"`
	PollIntervalMs int             `yaml:"poll_interval_ms"`
	GPIOEject      GPIOEjectConfig `yaml:"gpio_eject"`
	Share          ShareConfig     `yaml:"share"`
}

// LoadConfig reads and parses path. A missing file yields a zero-value
// Config (empty drive list), matching spec.md §4.6's "if none configured"
// placeholder-drive path rather than failing outright.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
