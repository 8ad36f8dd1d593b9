package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Catalog is the per-deployment description of what the API exposes. It is
// read once at startup; nothing in it changes while the process runs.
type Catalog struct {
	SupportedLocales  []string          `json:"supportedLocales" yaml:"supportedLocales"`
	ActiveFlowIDs     FlowIDList        `json:"activeFlowIds" yaml:"activeFlowIds"`
	IgnoredFlowIDs    []string          `json:"ignoredFlowIds" yaml:"ignoredFlowIds"`
	UnsolicitedSSOURL string            `json:"unsolicitedSsoUrl" yaml:"unsolicitedSsoUrl"`
	StrictTagTitles   bool              `json:"strictTagTitles" yaml:"strictTagTitles"`
	Properties        map[string]string `json:"properties" yaml:"properties"`
	ResponseHeaders   map[string]string `json:"responseHeaders" yaml:"responseHeaders"`
	Flows             []FlowSpec        `json:"flows" yaml:"flows"`
	Meta              *MetaSpec         `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// FlowSpec is one authentication flow as written in the catalog file.
type FlowSpec struct {
	ID           string   `json:"id" yaml:"id"`
	Principals   []string `json:"principals" yaml:"principals"`
	ForcedAuthn  bool     `json:"forcedAuthn" yaml:"forcedAuthn"`
	PassiveAuthn bool     `json:"passiveAuthn" yaml:"passiveAuthn"`
}

// MetaSpec holds the static service information published by the meta endpoint.
type MetaSpec struct {
	ID                 string `json:"id" yaml:"id"`
	SAMLEntityID       string `json:"samlEntityId" yaml:"samlEntityId"`
	SAMLMetadataURL    string `json:"samlMetadataUrl" yaml:"samlMetadataUrl"`
	Name               string `json:"name" yaml:"name"`
	Organization       string `json:"organization" yaml:"organization"`
	CountryCode        string `json:"countryCode" yaml:"countryCode"`
	ServiceDescription string `json:"serviceDescription" yaml:"serviceDescription"`
	ContactEmail       string `json:"contactEmail" yaml:"contactEmail"`
}

// FlowIDList accepts either a YAML/JSON list or a single "a|b|c" string.
// A nil list means the key was absent.
type FlowIDList []string

func (l *FlowIDList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = ParseFlowIDs(node.Value)
		return nil
	}
	var ids []string
	if err := node.Decode(&ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

func (l *FlowIDList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = ParseFlowIDs(s)
		return nil
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

// ParseFlowIDs splits a pipe separated flow id list, dropping empty tokens.
func ParseFlowIDs(s string) []string {
	ids := []string{}
	for _, tok := range strings.Split(s, "|") {
		if tok = strings.TrimSpace(tok); tok != "" {
			ids = append(ids, tok)
		}
	}
	return ids
}

var ErrNoLocales = errors.New("the list of supported locales cannot be empty")

// LoadCatalog reads a catalog from a .yaml/.yml or .json file and validates it.
func LoadCatalog(path string) (Catalog, error) {
	var c Catalog
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read catalog: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("json parse: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("yaml parse: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks that at least one locale is configured and that every
// locale is a well-formed BCP 47 tag.
func (c Catalog) Validate() error {
	if len(c.SupportedLocales) == 0 {
		return ErrNoLocales
	}
	for _, l := range c.SupportedLocales {
		if _, err := language.Parse(l); err != nil {
			return fmt.Errorf("supported locale %q: %w", l, err)
		}
	}
	return nil
}

// MergeHeaders returns the catalog response headers overlaid with env ones.
func (c Catalog) MergeHeaders(extra map[string]string) map[string]string {
	out := make(map[string]string, len(c.ResponseHeaders)+len(extra))
	for k, v := range c.ResponseHeaders {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
