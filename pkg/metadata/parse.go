package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

var ErrNotMetadata = errors.New("document is not SAML metadata")

type rawEntity struct {
	EntityID string     `xml:"entityID,attr"`
	Children []rawChild `xml:",any"`
}

type rawChild struct {
	XMLName    xml.Name
	Extensions *rawExtensions `xml:"urn:oasis:names:tc:SAML:2.0:metadata Extensions"`
}

type rawExtensions struct {
	Elements []rawExtension `xml:",any"`
}

type rawExtension struct {
	XMLName xml.Name
	UIInfo
}

// Parse reads a metadata document rooted at either an EntityDescriptor or an
// EntitiesDescriptor. Nested EntitiesDescriptor groups are flattened and
// entities keep their document order.
func Parse(data []byte) ([]EntityDescriptor, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []EntityDescriptor
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unmarshal xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Space != NSMetadata {
			if !sawRoot {
				return nil, fmt.Errorf("%w: root element %s", ErrNotMetadata, se.Name.Local)
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("unmarshal xml: %w", err)
			}
			continue
		}
		switch se.Name.Local {
		case "EntitiesDescriptor":
			sawRoot = true
		case "EntityDescriptor":
			sawRoot = true
			var raw rawEntity
			if err := dec.DecodeElement(&raw, &se); err != nil {
				return nil, fmt.Errorf("unmarshal entity: %w", err)
			}
			out = append(out, raw.entity())
		default:
			if !sawRoot {
				return nil, fmt.Errorf("%w: root element %s", ErrNotMetadata, se.Name.Local)
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("unmarshal xml: %w", err)
			}
		}
	}
	if !sawRoot {
		return nil, ErrNotMetadata
	}
	return out, nil
}

func (r rawEntity) entity() EntityDescriptor {
	e := EntityDescriptor{EntityID: r.EntityID}
	for _, c := range r.Children {
		if c.XMLName.Space != NSMetadata || !roleElements[c.XMLName.Local] {
			continue
		}
		role := RoleDescriptor{Name: c.XMLName}
		if c.Extensions != nil {
			for _, x := range c.Extensions.Elements {
				ext := Extension{Name: x.XMLName}
				if x.XMLName.Space == NSUI && x.XMLName.Local == "UIInfo" {
					ui := x.UIInfo
					ext.UIInfo = &ui
				}
				role.Extensions = append(role.Extensions, ext)
			}
		}
		e.Roles = append(e.Roles, role)
	}
	return e
}
