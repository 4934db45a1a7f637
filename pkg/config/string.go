package config

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// StringSlice reads either a single scalar or a list, so keys like
// api.allowedOrigins accept both
//
//	allowedOrigins: http://localhost:3000
//	allowedOrigins: [http://a.example, http://b.example]
type StringSlice []string

func (s *StringSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*s = list
		return nil
	}

	var scalar string
	if err := unmarshal(&scalar); err != nil {
		return err
	}

	*s = append(*s, scalar)
	return nil
}

func (s *StringSlice) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	return s.appendValue(v)
}

func (s *StringSlice) appendValue(v interface{}) error {
	switch d := v.(type) {
	case string:
		*s = append(*s, d)

	case []string:
		*s = append(*s, d...)

	case []interface{}:
		for _, e := range d {
			if err := s.appendValue(e); err != nil {
				return err
			}
		}

	default:
		return errors.Errorf("unexpected type %T for StringSlice: %+v", d, d)
	}

	return nil
}
