package ime

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"quwei/internal/config"
)

// ComponentVersion is written into the IBus component description.
const ComponentVersion = "1.0"

type componentXML struct {
	XMLName     xml.Name    `xml:"component"`
	Name        string      `xml:"name"`
	Description string      `xml:"description"`
	Exec        string      `xml:"exec"`
	Version     string      `xml:"version"`
	License     string      `xml:"license"`
	TextDomain  string      `xml:"textdomain"`
	Engines     []engineXML `xml:"engines>engine"`
}

type engineXML struct {
	Name        string `xml:"name"`
	Language    string `xml:"language"`
	License     string `xml:"license"`
	Layout      string `xml:"layout"`
	LongName    string `xml:"longname"`
	Description string `xml:"description"`
	Rank        int    `xml:"rank"`
	Symbol      string `xml:"symbol"`
}

// ComponentXML returns the IBus component file for the default bus and
// engine names, launching execPath.
func ComponentXML(execPath string) string {
	return BuildComponentXML(config.DefaultConfig().IBus, execPath)
}

// BuildComponentXML returns the IBus component file for cfg.
func BuildComponentXML(cfg config.IBusConfig, execPath string) string {
	c := componentXML{
		Name:        cfg.BusName,
		Description: "Quwei (GB2312 zone-position) input method",
		Exec:        execPath + " --ibus",
		Version:     ComponentVersion,
		License:     "MIT",
		TextDomain:  "quwei",
		Engines: []engineXML{{
			Name:        cfg.EngineName,
			Language:    "zh_CN",
			License:     "MIT",
			Layout:      "us",
			LongName:    "Quwei",
			Description: "Type GB2312 characters by their zone and position code",
			Rank:        0,
			Symbol:      "区",
		}},
	}

	out, err := xml.MarshalIndent(c, "", "    ")
	if err != nil {
		// Only plain strings and ints; marshaling cannot fail.
		panic(err)
	}
	return xml.Header + string(out) + "\n"
}

// DefaultComponentDir is the per-user IBus component directory.
func DefaultComponentDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "ibus", "component"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "ibus", "component"), nil
}

func componentPath(dir string, cfg config.IBusConfig) string {
	return filepath.Join(dir, cfg.EngineName+".xml")
}

// InstallComponent writes the component file into dir and returns its path.
func InstallComponent(dir string, cfg config.IBusConfig, execPath string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create component directory: %w", err)
	}
	path := componentPath(dir, cfg)
	if err := os.WriteFile(path, []byte(BuildComponentXML(cfg, execPath)), 0644); err != nil {
		return "", fmt.Errorf("write component: %w", err)
	}
	return path, nil
}

// UninstallComponent removes the component file from dir. A missing file is
// not an error.
func UninstallComponent(dir string, cfg config.IBusConfig) error {
	err := os.Remove(componentPath(dir, cfg))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove component: %w", err)
	}
	return nil
}

// IsComponentInstalled reports whether the component file exists in dir.
func IsComponentInstalled(dir string, cfg config.IBusConfig) bool {
	_, err := os.Stat(componentPath(dir, cfg))
	return err == nil
}
