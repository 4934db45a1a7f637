package util

import (
	"encoding/json"
	"os"
)

func WriteJsonFile(p string, obj interface{}) error {
	out, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(p, out, 0644)
}

func ReadJsonFile(file string, obj interface{}) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, obj)
}
