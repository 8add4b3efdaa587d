package common

import (
	"encoding/json"
	"fmt"
	"os"
)

type ciResult struct {
	OK      bool     `json:"ok"`
	Name    string   `json:"name"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// PrintCIResult emits one machine-readable JSON line for CI pipelines.
func PrintCIResult(ok bool, name string, details []string, err error) {
	result := ciResult{OK: ok, Name: name, Details: details}
	if err != nil {
		result.Error = err.Error()
	}
	out, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		fmt.Fprintf(os.Stderr, "print ci result: %v\n", marshalErr)
		return
	}
	fmt.Println(string(out))
}
