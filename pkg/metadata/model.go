// Package metadata loads SAML 2.0 metadata into immutable snapshots and hands
// them out to readers through pins.
package metadata

import (
	"encoding/xml"
	"sync/atomic"
	"time"
)

const (
	NSMetadata = "urn:oasis:names:tc:SAML:2.0:metadata"
	NSUI       = "urn:oasis:names:tc:SAML:metadata:ui"
)

// roleElements are the EntityDescriptor children that describe a role.
var roleElements = map[string]bool{
	"RoleDescriptor":               true,
	"IDPSSODescriptor":             true,
	"SPSSODescriptor":              true,
	"AuthnAuthorityDescriptor":     true,
	"AttributeAuthorityDescriptor": true,
	"PDPDescriptor":                true,
}

// EntityDescriptor is one federation member.
type EntityDescriptor struct {
	EntityID string
	Roles    []RoleDescriptor // document order
}

// RoleDescriptor is one role of an entity together with its extension
// elements.
type RoleDescriptor struct {
	Name       xml.Name
	Extensions []Extension
}

// IsServiceProvider reports whether the role is an SPSSODescriptor.
func (r RoleDescriptor) IsServiceProvider() bool {
	return r.Name.Space == NSMetadata && r.Name.Local == "SPSSODescriptor"
}

// UIInfo returns the first mdui:UIInfo extension, or nil.
func (r RoleDescriptor) UIInfo() *UIInfo {
	for _, e := range r.Extensions {
		if e.Name.Space == NSUI && e.Name.Local == "UIInfo" && e.UIInfo != nil {
			return e.UIInfo
		}
	}
	return nil
}

// Extension is a child of a role's md:Extensions element. UIInfo is set only
// for mdui:UIInfo.
type Extension struct {
	Name   xml.Name
	UIInfo *UIInfo
}

type UIInfo struct {
	DisplayNames    []LocalizedValue `xml:"urn:oasis:names:tc:SAML:metadata:ui DisplayName"`
	Descriptions    []LocalizedValue `xml:"urn:oasis:names:tc:SAML:metadata:ui Description"`
	InformationURLs []LocalizedValue `xml:"urn:oasis:names:tc:SAML:metadata:ui InformationURL"`
	Logos           []Logo           `xml:"urn:oasis:names:tc:SAML:metadata:ui Logo"`
}

// LocalizedValue represents an element with an xml:lang attribute.
type LocalizedValue struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

type Logo struct {
	Lang   string `xml:"lang,attr"`
	URL    string `xml:",chardata"`
	Height int    `xml:"height,attr"`
	Width  int    `xml:"width,attr"`
}

// Resolver is one link in a snapshot's resolver chain.
type Resolver interface {
	Name() string
}

// Iterable is a resolver whose entities can be enumerated.
type Iterable interface {
	Resolver
	Entities() []EntityDescriptor
}

// Document is an Iterable resolver backed by one parsed metadata document.
type Document struct {
	name     string
	entities []EntityDescriptor
}

func NewDocument(name string, entities []EntityDescriptor) *Document {
	return &Document{name: name, entities: entities}
}

func (d *Document) Name() string { return d.name }
func (d *Document) Entities() []EntityDescriptor { return d.entities }

// Snapshot is an immutable, ordered chain of resolvers. It must not be
// copied once published.
type Snapshot struct {
	Resolvers []Resolver
	LoadedAt  time.Time

	pins atomic.Int64
}

// Pins reports how many pins on s are still outstanding.
func (s *Snapshot) Pins() int64 { return s.pins.Load() }

// EntityCount counts entities over the iterable resolvers.
func (s *Snapshot) EntityCount() int {
	n := 0
	for _, r := range s.Resolvers {
		if it, ok := r.(Iterable); ok {
			n += len(it.Entities())
		}
	}
	return n
}
