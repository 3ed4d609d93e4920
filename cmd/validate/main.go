// Command validate checks a save file without touching a server. It
// runs the same envelope validation the load endpoint applies, then
// prints a short summary of the session it found.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/questweaver/questweaver/pkg/save"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <save.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	if err := validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
}

func validateFile(filename string) error {
	if !strings.HasSuffix(filepath.Base(filename), ".json") {
		return fmt.Errorf("save file must have .json extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	env, err := save.Load(data)
	if err != nil {
		return err
	}

	cs := env.GameState
	fmt.Printf("Save file is valid (version %s)\n", env.Version)
	fmt.Printf("  Character: %s (%s)\n", cs.Name, cs.Genre)
	fmt.Printf("  HP:        %d/%d\n", cs.HP, cs.MaxHP)
	fmt.Printf("  Status:    %s\n", cs.GameStatus)
	fmt.Printf("  Turns:     %d\n", len(cs.History))
	fmt.Printf("  Choices:   %d offered\n", len(env.CurrentChoices))
	if cs.CurrentQuest != "" {
		fmt.Printf("  Quest:     %s\n", cs.CurrentQuest)
	}
	return nil
}
