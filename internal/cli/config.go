package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// configFile is looked up in the working directory to supply defaults
// for rewrite flags. Flags set on the command line win.
const configFile = ".pdfjson.toml"

// config holds the optional file-based defaults.
//
//	decode_level = "generalized"
//	stream_data  = "file"
//	file_prefix  = "streams/obj"
type config struct {
	DecodeLevel string `toml:"decode_level"`
	StreamData  string `toml:"stream_data"`
	FilePrefix  string `toml:"file_prefix"`
}

// loadConfig reads the defaults file from dir. A missing file is not
// an error; a malformed one is.
func loadConfig(dir string) (config, error) {
	var cfg config
	data, err := os.ReadFile(dir + "/" + configFile)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("cli: reading %s: %w", configFile, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cli: parsing %s: %w", configFile, err)
	}
	return cfg, nil
}
