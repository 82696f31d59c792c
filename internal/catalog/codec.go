package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/user/dns-switcher/internal/logger"
)

// fileSetting is one entry of the "settings" array as written to disk.
type fileSetting struct {
	Name    string   `json:"name"`
	Servers []string `json:"servers"`
	LoadCmd string   `json:"load_cmd,omitempty"`
}

type fileCatalog struct {
	Interface string        `json:"interface"`
	Settings  []fileSetting `json:"settings"`
}

// rawSetting decodes an entry with pointer fields so absent keys can be told
// apart from empty values.
type rawSetting struct {
	Name    *string   `json:"name"`
	Servers *[]string `json:"servers"`
	LoadCmd *string   `json:"load_cmd"`
}

// Decode parses catalog bytes. A document that is not a JSON object fails as a
// whole; individual settings that do not validate are skipped and logged.
func Decode(data []byte) (*Catalog, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if top == nil {
		return nil, errors.New("parse catalog: top level is not an object")
	}

	cat := &Catalog{Interface: DefaultInterface}

	if raw, ok := top["interface"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || strings.TrimSpace(name) == "" {
			logger.Warning("Invalid interface %s in catalog, using %q", string(raw), DefaultInterface)
		} else {
			cat.Interface = name
		}
	}

	raw, ok := top["settings"]
	if !ok {
		logger.Warning("No configuration settings found")
		return cat, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Warning("Catalog settings is not an array: %v", err)
		return cat, nil
	}

	for i, entry := range entries {
		p, err := decodeSetting(entry)
		if err != nil {
			logger.Warning("Skipping setting #%d: %v", i, err)
			continue
		}
		cat.Profiles = append(cat.Profiles, p)
	}
	return cat, nil
}

func decodeSetting(data json.RawMessage) (Profile, error) {
	var rs rawSetting
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rs); err != nil {
		return Profile{}, err
	}
	if rs.Name == nil || *rs.Name == "" {
		return Profile{}, errors.New("name is required")
	}
	if rs.Servers == nil || len(*rs.Servers) == 0 {
		return Profile{}, fmt.Errorf("%q: servers are required", *rs.Name)
	}
	p := Profile{
		Name:    *rs.Name,
		Servers: *rs.Servers,
	}
	if rs.LoadCmd != nil {
		p.LoadCmd = *rs.LoadCmd
	}
	return p, nil
}

// Encode renders the catalog in its on-disk form. load_cmd is written only
// for profiles that have one.
func Encode(cat *Catalog) ([]byte, error) {
	fc := fileCatalog{
		Interface: cat.Interface,
		Settings:  make([]fileSetting, 0, len(cat.Profiles)),
	}
	for _, p := range cat.Profiles {
		fc.Settings = append(fc.Settings, fileSetting{
			Name:    p.Name,
			Servers: p.Servers,
			LoadCmd: p.LoadCmd,
		})
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return append(data, '\n'), nil
}
