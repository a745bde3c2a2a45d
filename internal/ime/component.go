package ime

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Component is the IBus component description that tells ibus-daemon how
// to start the engine.
type Component struct {
	XMLName     xml.Name          `xml:"component"`
	Name        string            `xml:"name"`
	Description string            `xml:"description"`
	Exec        string            `xml:"exec"`
	Version     string            `xml:"version"`
	Author      string            `xml:"author"`
	License     string            `xml:"license"`
	Homepage    string            `xml:"homepage"`
	Textdomain  string            `xml:"textdomain"`
	Engines     []ComponentEngine `xml:"engines>engine"`
}

// ComponentEngine describes one engine of a component.
type ComponentEngine struct {
	Name        string `xml:"name"`
	Language    string `xml:"language"`
	License     string `xml:"license"`
	Author      string `xml:"author"`
	Icon        string `xml:"icon"`
	Layout      string `xml:"layout"`
	LongName    string `xml:"longname"`
	Description string `xml:"description"`
	Rank        int    `xml:"rank"`
	Symbol      string `xml:"symbol"`
}

// NewComponent describes the engine binary at execPath.
func NewComponent(execPath, version string) Component {
	return Component{
		Name:        BusName,
		Description: "Bopomofo input method with LLM suggestions",
		Exec:        execPath + " --ibus",
		Version:     version,
		Author:      "BopomofoLLM",
		License:     "MIT",
		Homepage:    "https://github.com/GoatWang/BopomofoLLM",
		Textdomain:  EngineName,
		Engines: []ComponentEngine{{
			Name:        EngineName,
			Language:    "zh_TW",
			License:     "MIT",
			Author:      "BopomofoLLM",
			Icon:        "ibus-bopomofo",
			Layout:      "us",
			LongName:    "Bopomofo (LLM)",
			Description: "Bopomofo phrase input with associated phrases and suggestions",
			Rank:        50,
			Symbol:      "注",
		}},
	}
}

// Marshal renders the component XML document.
func (c Component) Marshal() ([]byte, error) {
	data, err := xml.MarshalIndent(c, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal component: %w", err)
	}
	return append([]byte(`<?xml version="1.0" encoding="utf-8"?>`+"\n"), append(data, '\n')...), nil
}

// ComponentDir returns the per-user IBus component directory.
func ComponentDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "ibus", "component")
}

// ComponentPath returns where Install writes the component.
func ComponentPath() string {
	return filepath.Join(ComponentDir(), EngineName+".xml")
}

// Install writes the component for the binary at execPath and returns the
// file written. IBus reads it after "ibus restart".
func Install(execPath, version string) (string, error) {
	data, err := NewComponent(execPath, version).Marshal()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(ComponentDir(), 0755); err != nil {
		return "", fmt.Errorf("create component directory: %w", err)
	}
	path := ComponentPath()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write component: %w", err)
	}
	return path, nil
}

// Uninstall removes the component. Removing a missing component succeeds.
func Uninstall() error {
	err := os.Remove(ComponentPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove component: %w", err)
	}
	return nil
}
