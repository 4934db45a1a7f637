package types

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that accepts "30s" style strings or plain
// second counts in config files.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var o interface{}
	if err := json.Unmarshal(data, &o); err != nil {
		return err
	}

	switch t := o.(type) {
	case string:
		dd, err := time.ParseDuration(t)
		if err != nil {
			return err
		}
		*d = Duration(dd)

	case float64:
		*d = Duration(time.Duration(t * float64(time.Second)))

	default:
		return fmt.Errorf("unsupported duration value: %v", o)
	}

	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		dd, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(dd)
		return nil
	}

	var f float64
	if err := value.Decode(&f); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}

	return fmt.Errorf("unsupported duration node: %q", value.Value)
}
