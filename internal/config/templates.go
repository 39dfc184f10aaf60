package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "listen", "unicast":
		return listenTemplate, nil
	case "multicast":
		return multicastTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const listenTemplate = `name = "ffctl"
listen_addr = "0.0.0.0:8600"
read_buffer = 65535
metrics_addr = "127.0.0.1:9600"
`

const multicastTemplate = `name = "ffctl-cat62"
listen_addr = "0.0.0.0:8600"
multicast_group = "239.0.0.1"
interface = ""
category = 62
read_buffer = 65535
metrics_addr = "127.0.0.1:9600"
`
