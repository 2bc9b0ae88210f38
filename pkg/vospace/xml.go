// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vospace

import (
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/walteh/canfar/pkg/storage/remote"
	"gitlab.com/tozd/go/errors"
)

const (
	nsVOSpace = "http://www.ivoa.net/xml/VOSpace/v2.0"
	nsXSI     = "http://www.w3.org/2001/XMLSchema-instance"
)

// xmlNode is the VOSpace 2.0 node document, reduced to what the copy needs
type xmlNode struct {
	XMLName  xml.Name   `xml:"node"`
	URI      string     `xml:"uri,attr"`
	Type     string     `xml:"type,attr"`
	Target   string     `xml:"target"`
	Children []xmlChild `xml:"nodes>node"`
}

type xmlChild struct {
	URI  string `xml:"uri,attr"`
	Type string `xml:"type,attr"`
}

func kindOf(xsiType string) (remote.NodeKind, error) {
	_, local, found := strings.Cut(xsiType, ":")
	if !found {
		local = xsiType
	}
	switch local {
	case "ContainerNode":
		return remote.ContainerNode, nil
	case "DataNode", "UnstructuredDataNode", "StructuredDataNode":
		return remote.DataNode, nil
	case "LinkNode":
		return remote.LinkNode, nil
	default:
		return 0, errors.Errorf("unknown node type %q", xsiType)
	}
}

// decodeNode reads a node document and rewrites its URIs to the short form
func decodeNode(r io.Reader, scheme string) (*remote.Node, error) {
	var doc xmlNode
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Errorf("decoding xml: %w", err)
	}

	kind, err := kindOf(doc.Type)
	if err != nil {
		return nil, err
	}

	n := &remote.Node{URI: shortForm(doc.URI, scheme), Kind: kind}
	if kind == remote.LinkNode {
		n.Target = shortForm(strings.TrimSpace(doc.Target), scheme)
	}
	for _, child := range doc.Children {
		n.Children = append(n.Children, path.Base(shortForm(child.URI, scheme)))
	}
	return n, nil
}

// shortForm turns "vos://authority!service/a/b" into "vos:/a/b". URIs of
// other schemes are returned unchanged.
func shortForm(uri, scheme string) string {
	rest, ok := strings.CutPrefix(uri, scheme+"://")
	if !ok {
		return uri
	}
	_, p, found := strings.Cut(rest, "/")
	if !found {
		return scheme + ":/"
	}
	return scheme + ":/" + p
}

func encodeContainer(uri string) (string, error) {
	return encodeNode(uri, "vos:ContainerNode", "")
}

func encodeLink(uri, target string) (string, error) {
	return encodeNode(uri, "vos:LinkNode", target)
}

func encodeNode(uri, xsiType, target string) (string, error) {
	doc := struct {
		XMLName xml.Name `xml:"vos:node"`
		VOS     string   `xml:"xmlns:vos,attr"`
		XSI     string   `xml:"xmlns:xsi,attr"`
		URI     string   `xml:"uri,attr"`
		Type    string   `xml:"xsi:type,attr"`
		Target  string   `xml:"vos:target,omitempty"`
	}{VOS: nsVOSpace, XSI: nsXSI, URI: uri, Type: xsiType, Target: target}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

// encodeMove builds the transfer document that moves target to direction
func encodeMove(target, direction string) (string, error) {
	doc := struct {
		XMLName   xml.Name `xml:"vos:transfer"`
		VOS       string   `xml:"xmlns:vos,attr"`
		Version   string   `xml:"version,attr"`
		Target    string   `xml:"vos:target"`
		Direction string   `xml:"vos:direction"`
		KeepBytes bool     `xml:"vos:keepBytes"`
	}{VOS: nsVOSpace, Version: "2.1", Target: target, Direction: direction}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}
